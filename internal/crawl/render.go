package crawl

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ChromeRenderer renders a page in headless Chrome and returns the
// final DOM. One session per call; the crawl only ever needs it once.
type ChromeRenderer struct {
	timeout   time.Duration
	userAgent string
}

func NewChromeRenderer(timeout time.Duration, userAgent string) *ChromeRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeRenderer{timeout: timeout, userAgent: userAgent}
}

func (r *ChromeRenderer) Render(parentCtx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(parentCtx, r.timeout)
	defer cancel()

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	}
	if r.userAgent != "" {
		execOpts = append(execOpts, chromedp.UserAgent(r.userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	start := time.Now()
	var html string
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		// Give client-side routers a moment to paint after body ready.
		chromedp.Sleep(500*time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", eris.Wrapf(err, "crawl: render %s", url)
	}
	zap.L().Debug("render complete",
		zap.String("url", url),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		zap.Int("html_bytes", len(html)))
	return html, nil
}
