package handler

import (
	"sync"

	"github.com/rizkirmdhn/bililinks/pkg/models"
)

// Feed keeps the most recent link events and running totals.
type Feed struct {
	mu     sync.Mutex
	size   int
	recent []models.LinkEvent
	stats  models.Stats
}

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = 100
	}
	return &Feed{size: size}
}

func (f *Feed) AddLink(event models.LinkEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.recent = append(f.recent, event)
	if len(f.recent) > f.size {
		f.recent = f.recent[len(f.recent)-f.size:]
	}
	f.stats.Links++
	f.stats.LastRunID = event.RunID
}

func (f *Feed) AddRun(summary models.RunSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stats.Runs++
	f.stats.LastRunID = summary.RunID
	f.stats.LastStatus = summary.Status
}

// Recent returns a copy of the buffered events, oldest first.
func (f *Feed) Recent() []models.LinkEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]models.LinkEvent, len(f.recent))
	copy(out, f.recent)
	return out
}

func (f *Feed) Stats() models.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stats
}
