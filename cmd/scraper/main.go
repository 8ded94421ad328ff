package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rizkirmdhn/bililinks/internal/common/config"
	"github.com/rizkirmdhn/bililinks/internal/common/logger"
	"github.com/rizkirmdhn/bililinks/internal/common/messaging"
	"github.com/rizkirmdhn/bililinks/internal/scraper"
	"github.com/rizkirmdhn/bililinks/internal/scraper/extractor"
	"github.com/rizkirmdhn/bililinks/internal/scraper/fetcher"
	"github.com/rizkirmdhn/bililinks/internal/scraper/service"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load the configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)
	if err := run(context.Background(), cfg, log, os.Stdout); err != nil {
		log.WithFields(logrus.Fields{
			"component": "scraper_main",
			"error":     err,
		}).Error("Scraper failed")
		os.Exit(1)
	}
}

// run performs one crawl; every resource it opens is released before it returns
func run(ctx context.Context, cfg *config.Config, log *logrus.Logger, stdout io.Writer) error {
	scraperCfg := cfg.GetScraperConfig()
	rabbitCfg := cfg.GetRabbitMQConfig()

	log.WithFields(logrus.Fields{
		"component": "scraper_main",
		"config":    fmt.Sprintf("%+v", *scraperCfg),
	}).Debug("Scraper configuration loaded")

	// The output log has to exist before the first request goes out
	output, err := service.OpenOutput(scraperCfg.OutputFile)
	if err != nil {
		return err
	}

	var publisher service.Publisher
	if rabbitCfg.URL != "" {
		client, err := messaging.NewRabbitMQClient(rabbitCfg, log)
		if err != nil {
			output.Close()
			return fmt.Errorf("failed to create RabbitMQ client: %w", err)
		}
		defer client.Close()

		linkPublisher := messaging.NewLinkPublisher(client, rabbitCfg)
		if err := linkPublisher.Setup(rabbitCfg.Queue); err != nil {
			output.Close()
			return fmt.Errorf("failed to set up messaging: %w", err)
		}
		publisher = linkPublisher
	}

	timeout := time.Duration(scraperCfg.Timeout) * time.Second
	var pageFetcher fetcher.Fetcher
	switch scraperCfg.Fetcher {
	case config.FetcherBrowser:
		browser := fetcher.NewBrowserFetcher(scraperCfg.UserAgent, timeout, log)
		defer browser.Close()
		pageFetcher = browser
	default:
		pageFetcher = fetcher.NewHTTPFetcher(timeout, scraperCfg.UserAgent)
	}

	crawler := service.NewPageCrawler(
		scraperCfg,
		log,
		pageFetcher,
		extractor.New(scraper.NewMatcher(scraperCfg.Host)),
		output,
		publisher,
	)

	summary, err := crawler.Run(ctx)
	if cerr := output.Close(); cerr != nil && err == nil {
		err = &scraper.CrawlError{Op: scraper.OpWrite, URL: output.Path(), Err: cerr}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "data written to %s (%d links)\n", summary.OutputFile, summary.Links)
	return nil
}
