package bunker

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/oilreport/internal/httpclient"
)

// PageFetcher retrieves the HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPPageFetcher fetches pages with a plain GET and a browser user agent.
type HTTPPageFetcher struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
}

// NewHTTPPageFetcher creates a fetcher. A zero interval disables rate limiting.
func NewHTTPPageFetcher(client *http.Client, userAgent string, interval time.Duration) *HTTPPageFetcher {
	if client == nil {
		client = httpclient.NewDefaultHTTPClient(30 * time.Second)
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &HTTPPageFetcher{
		client:    client,
		userAgent: userAgent,
		limiter:   limiter,
	}
}

// Fetch implements PageFetcher. Non-2xx responses return *httpclient.StatusError.
func (f *HTTPPageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}
	return httpclient.GetPage(ctx, f.client, url, f.userAgent)
}

// BrowserPageFetcher renders pages in headless Chrome for sites that build
// their price tables with JavaScript.
type BrowserPageFetcher struct {
	userAgent string
	wait      time.Duration
	logger    arbor.ILogger
}

// NewBrowserPageFetcher creates a headless browser fetcher.
func NewBrowserPageFetcher(userAgent string, wait time.Duration, logger arbor.ILogger) *BrowserPageFetcher {
	if userAgent == "" {
		userAgent = httpclient.DefaultUserAgent
	}
	return &BrowserPageFetcher{
		userAgent: userAgent,
		wait:      wait,
		logger:    logger,
	}
}

// Fetch implements PageFetcher. A fresh browser is started per call.
func (f *BrowserPageFetcher) Fetch(ctx context.Context, url string) (string, error) {
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(
		ctx,
		append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(f.userAgent),
		)...,
	)
	defer allocatorCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	defer browserCancel()

	f.logger.Debug().Str("url", url).Dur("wait", f.wait).Msg("Rendering page in headless browser")

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.wait), // Wait for JavaScript to render
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}
	return htmlContent, nil
}
