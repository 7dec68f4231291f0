// Package browser provides the chromedp session used by every workflow.
package browser

import "github.com/chromedp/chromedp"

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Options returns chromedp allocator options with anti-bot-detection measures.
// An empty userAgent uses DefaultUserAgent.
func Options(headless bool, userAgent string) []chromedp.ExecAllocatorOption {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),

		// Hide navigator.webdriver
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1366, 900),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}

	return opts
}
