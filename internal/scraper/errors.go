package scraper

import (
	"errors"
	"fmt"
)

// Op identifies where a fatal crawl error came from.
type Op string

const (
	OpFetch  Op = "fetch"
	OpOutput Op = "output"
	OpWrite  Op = "write"
)

// CrawlError aborts a run. Nothing is retried regardless of Op.
type CrawlError struct {
	Op Op
	// URL is the page being fetched or the output path, depending on Op
	URL string
	Err error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

func IsFetchError(err error) bool  { return hasOp(err, OpFetch) }
func IsOutputError(err error) bool { return hasOp(err, OpOutput) }
func IsWriteError(err error) bool  { return hasOp(err, OpWrite) }

func hasOp(err error, op Op) bool {
	var ce *CrawlError
	return errors.As(err, &ce) && ce.Op == op
}
