package models

import "time"

// Run status values
const (
	RunStatusDone    = "done"
	RunStatusAborted = "aborted"
)

// LinkEvent is published every time the crawler discovers a link it has not seen before
type LinkEvent struct {
	RunID string    `json:"run_id"`
	Seq   int       `json:"seq"`
	URL   string    `json:"url"`
	Page  int       `json:"page"`
	Time  time.Time `json:"time"`
}

// RunSummary describes a finished crawl
type RunSummary struct {
	RunID      string `json:"run_id"`
	Pages      int    `json:"pages"`
	Links      int    `json:"links"`
	Status     string `json:"status"`
	OutputFile string `json:"output_file"`
	Error      string `json:"error,omitempty"`
}
