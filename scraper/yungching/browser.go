package yungching

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/leolan92/Parsing-house-price/utils"
)

const pageLoadTimeout = 60 * time.Second

// BrowserFetcher renders pages in headless Chrome before returning their
// HTML. One browser process is shared by every Fetch until Close.
type BrowserFetcher struct {
	browserCtx  context.Context
	cancelAlloc context.CancelFunc
	cancelTab   context.CancelFunc
}

// NewBrowserFetcher prepares the browser allocator; Chrome itself starts on
// the first Fetch. chromeBin may be empty, in which case PATH and the usual
// install locations are searched.
func NewBrowserFetcher(chromeBin, userAgent string, logger *utils.Logger) *BrowserFetcher {
	chromeBin = resolveChromeBinary(chromeBin)
	logger.Info("[browser] Using browser binary: %q", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	return &BrowserFetcher{
		browserCtx:  browserCtx,
		cancelAlloc: cancelAlloc,
		cancelTab:   cancelTab,
	}
}

// Fetch opens url in a new tab, waits for the body and returns the rendered
// document.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(b.browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, pageLoadTimeout)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser fetch %s: %w", url, err)
	}
	return html, nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() {
	b.cancelTab()
	b.cancelAlloc()
}

// chromeNames are looked up on PATH, then chromeInstallPaths are probed.
var (
	chromeNames        = []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	chromeInstallPaths = []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
)

// resolveChromeBinary returns the configured binary when set, otherwise the
// first Chrome or Chromium found, or "" to let chromedp use its own lookup.
func resolveChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, p := range chromeInstallPaths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
