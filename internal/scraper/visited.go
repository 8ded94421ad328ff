package scraper

// VisitedSet records every link already written during a run.
type VisitedSet struct {
	seen map[string]struct{}
}

func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// Add inserts link and reports whether it was not present before.
func (v *VisitedSet) Add(link string) bool {
	if _, ok := v.seen[link]; ok {
		return false
	}
	v.seen[link] = struct{}{}
	return true
}

func (v *VisitedSet) Contains(link string) bool {
	_, ok := v.seen[link]
	return ok
}

func (v *VisitedSet) Len() int {
	return len(v.seen)
}
