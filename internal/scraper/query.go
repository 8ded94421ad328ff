package scraper

import (
	"fmt"
	"net/url"
)

// PageRequest is the pagination cursor for a single search page.
type PageRequest struct {
	Page   int
	Offset int
}

// NewPageRequest builds the request for page (1-based). The offset skips the
// results of every earlier page.
func NewPageRequest(page, pageSize int) PageRequest {
	return PageRequest{
		Page:   page,
		Offset: (page - 1) * pageSize,
	}
}

// Query renders search page URLs for a fixed keyword.
type Query struct {
	searchURL string
	keyword   string
}

func NewQuery(searchURL, keyword string) Query {
	return Query{
		searchURL: searchURL,
		keyword:   url.QueryEscape(keyword),
	}
}

// URL returns the search URL for req. Parameter order matches what the search
// frontend itself sends.
func (q Query) URL(req PageRequest) string {
	return fmt.Sprintf("%s?keyword=%s&from_source=webtop_search&spm_id_from=333.934&search_source=2&page=%d&o=%d",
		q.searchURL, q.keyword, req.Page, req.Offset)
}
