package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rizkirmdhn/bililinks/internal/common/config"
	"github.com/rizkirmdhn/bililinks/internal/scraper"
	"github.com/rizkirmdhn/bililinks/internal/scraper/fetcher"
	"github.com/rizkirmdhn/bililinks/internal/scraper/sink"
	"github.com/rizkirmdhn/bililinks/pkg/models"
	"github.com/sirupsen/logrus"
)

// LinkExtractor returns the matching, normalized links of a page body.
type LinkExtractor interface {
	Extract(body string) []string
}

// OutputLog receives one record per newly discovered link.
type OutputLog interface {
	Append(seq int, url string) error
	Path() string
}

// Publisher forwards crawl events to other services. Optional.
type Publisher interface {
	PublishLink(event models.LinkEvent) error
	PublishRun(summary models.RunSummary) error
}

// PageCrawler walks the search result pages one at a time until a page has
// no matching links.
type PageCrawler struct {
	config    *config.ScraperConfig
	log       *logrus.Logger
	fetcher   fetcher.Fetcher
	extractor LinkExtractor
	output    OutputLog
	publisher Publisher
	query     scraper.Query
}

// NewPageCrawler creates a crawler. publisher may be nil.
func NewPageCrawler(cfg *config.ScraperConfig, log *logrus.Logger, f fetcher.Fetcher, ext LinkExtractor, out OutputLog, pub Publisher) *PageCrawler {
	return &PageCrawler{
		config:    cfg,
		log:       log,
		fetcher:   f,
		extractor: ext,
		output:    out,
		publisher: pub,
		query:     scraper.NewQuery(cfg.SearchURL, cfg.Keyword),
	}
}

// OpenOutput creates the output log. It must succeed before Run is called.
func OpenOutput(path string) (*sink.FileLog, error) {
	out, err := sink.Create(path)
	if err != nil {
		return nil, &scraper.CrawlError{Op: scraper.OpOutput, URL: path, Err: err}
	}
	return out, nil
}

// Run fetches page 1, 2, ... and appends every link not seen earlier in the
// run to the output log. It stops after the first page whose raw match count
// is zero, even if earlier pages only repeated known links. Any fetch or
// write failure aborts the run with a *scraper.CrawlError.
func (c *PageCrawler) Run(ctx context.Context) (*models.RunSummary, error) {
	runID := uuid.NewString()
	log := c.log.WithField("run_id", runID)
	log.WithFields(logrus.Fields{
		"keyword": c.config.Keyword,
		"output":  c.output.Path(),
	}).Info("Starting crawl")

	visited := scraper.NewVisitedSet()
	seq := 0

	for page := 1; ; page++ {
		req := scraper.NewPageRequest(page, c.config.PageSize)
		url := c.query.URL(req)

		resp, err := c.fetcher.Fetch(ctx, url)
		if err != nil {
			return nil, c.abort(log, runID, page, seq, &scraper.CrawlError{Op: scraper.OpFetch, URL: url, Err: err})
		}
		if resp.StatusCode != http.StatusOK {
			log.WithFields(logrus.Fields{
				"page":   page,
				"status": resp.StatusCode,
			}).Warn("Search page returned non-OK status, parsing body anyway")
		}

		links := c.extractor.Extract(resp.Body)
		added := 0
		for _, link := range links {
			if !visited.Add(link) {
				continue
			}
			seq++
			if err := c.output.Append(seq, link); err != nil {
				return nil, c.abort(log, runID, page, seq, &scraper.CrawlError{Op: scraper.OpWrite, URL: c.output.Path(), Err: err})
			}
			added++
			c.publishLink(log, models.LinkEvent{
				RunID: runID,
				Seq:   seq,
				URL:   link,
				Page:  page,
				Time:  time.Now(),
			})
		}

		log.WithFields(logrus.Fields{
			"page":   page,
			"offset": req.Offset,
			"links":  len(links),
			"new":    added,
		}).Debug("Page scraped")

		if len(links) == 0 {
			summary := models.RunSummary{
				RunID:      runID,
				Pages:      page,
				Links:      seq,
				Status:     models.RunStatusDone,
				OutputFile: c.output.Path(),
			}
			log.WithFields(logrus.Fields{
				"pages": summary.Pages,
				"links": summary.Links,
			}).Info("Crawl complete")
			c.publishRun(log, summary)
			return &summary, nil
		}
	}
}

func (c *PageCrawler) abort(log *logrus.Entry, runID string, page, seq int, err *scraper.CrawlError) error {
	log.WithError(err).WithField("page", page).Error("Crawl aborted")
	c.publishRun(log, models.RunSummary{
		RunID:      runID,
		Pages:      page,
		Links:      seq,
		Status:     models.RunStatusAborted,
		OutputFile: c.output.Path(),
		Error:      err.Error(),
	})
	return err
}

func (c *PageCrawler) publishLink(log *logrus.Entry, event models.LinkEvent) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishLink(event); err != nil {
		log.WithError(err).WithField("url", event.URL).Warn("Failed to publish link event")
	}
}

func (c *PageCrawler) publishRun(log *logrus.Entry, summary models.RunSummary) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishRun(summary); err != nil {
		log.WithError(err).Warn("Failed to publish run summary")
	}
}
