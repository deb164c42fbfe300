package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// minContentLength is the minimum extracted text length to consider a static
// HTTP fetch successful. Shorter content usually means a script-rendered page.
const minContentLength = 500

func needsBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < minContentLength
}

// renderWithBrowser loads the page in a headless browser and returns the
// rendered HTML. Requires Chrome/Chromium on the host.
func renderWithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering a moment to populate the posting body.
		chromedp.Sleep(3*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Dismiss common cookie banners; absence is not an error.
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible).Do(ctx)
			return nil
		}),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
