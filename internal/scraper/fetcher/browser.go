package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// BrowserFetcher renders pages in headless Chrome. Useful when the search
// frontend only fills the result list from JavaScript.
type BrowserFetcher struct {
	timeout       time.Duration
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

func NewBrowserFetcher(userAgent string, timeout time.Duration, log *logrus.Logger) *BrowserFetcher {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))

	return &BrowserFetcher{
		timeout:       timeout,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if f.timeout > 0 {
		var timeoutCancel context.CancelFunc
		tabCtx, timeoutCancel = context.WithTimeout(tabCtx, f.timeout)
		defer timeoutCancel()
	}

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetBlockedURLS([]string{"*.png", "*.jpg", "*.jpeg", "*.gif", "*.webp"}),
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	return &Page{
		URL:        url,
		StatusCode: http.StatusOK,
		Body:       html,
	}, nil
}

// Close shuts the browser down.
func (f *BrowserFetcher) Close() {
	f.browserCancel()
	f.allocCancel()
}
