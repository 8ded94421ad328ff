package scraper

import (
	"regexp"
	"strings"
)

// Matcher accepts hrefs that point at a video detail page opened from search
// results, e.g. //www.bilibili.com/video/BV1xx411c7mD?from=search.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles the pattern for host once. Links on host itself and on
// its www. subdomain are accepted, protocol-relative or absolute.
func NewMatcher(host string) *Matcher {
	pattern := `^(?:https?:)?//(?:www\.)?` + regexp.QuoteMeta(host) + `/video/[^?]+\?from=search$`
	return &Matcher{re: regexp.MustCompile(pattern)}
}

func (m *Matcher) Match(href string) bool {
	return m.re.MatchString(href)
}

// Normalize turns a protocol-relative href into an https URL. Anything else is
// returned unchanged.
func Normalize(href string) string {
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
