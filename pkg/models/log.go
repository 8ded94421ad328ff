package models

// Stats represents the statistics the web panel keeps about crawler runs
type Stats struct {
	Runs       int    `json:"runs"`
	Links      int    `json:"links"`
	LastRunID  string `json:"last_run_id,omitempty"`
	LastStatus string `json:"last_status,omitempty"`
}

// ScrapLog represents a log message from the scraper
type ScrapLog struct {
	Status string      `json:"status"`
	Error  string      `json:"error,omitempty"`
	Link   *LinkEvent  `json:"link,omitempty"`
	Run    *RunSummary `json:"run,omitempty"`
}
