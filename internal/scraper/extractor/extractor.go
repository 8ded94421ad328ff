package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rizkirmdhn/bililinks/internal/scraper"
)

// Extractor pulls video links out of a search result page.
type Extractor struct {
	matcher *scraper.Matcher
}

func New(matcher *scraper.Matcher) *Extractor {
	return &Extractor{matcher: matcher}
}

// Extract returns the normalized href of every anchor accepted by the matcher,
// in document order. Duplicates are kept. A body that cannot be parsed yields
// no links.
func (e *Extractor) Extract(body string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if e.matcher.Match(href) {
			links = append(links, scraper.Normalize(href))
		}
	})

	return links
}
