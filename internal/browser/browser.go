package browser

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// ErrClosed is returned by page operations after Close
var ErrClosed = errors.New("browser session closed")

// Page is the set of page interactions the workflows need.
// Every call is bounded by the deadline of ctx.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Location(ctx context.Context) (string, error)
	// WaitForURL polls the location until match accepts it.
	WaitForURL(ctx context.Context, match func(string) bool) (string, error)
	// ClickAndCapture clicks selector and returns the body of the first
	// response whose URL matches endpoint.
	ClickAndCapture(ctx context.Context, selector, endpoint string) ([]byte, error)
	Evaluate(ctx context.Context, expression string, out any) error
	Screenshot(ctx context.Context, path string) error
}

// Browser is a running browser process with one page
type Browser interface {
	Page() Page
	Close() error
}

// Launcher starts browsers
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// SameURL compares two URLs ignoring a trailing slash on the path
func SameURL(a, b string) bool {
	return strings.TrimSuffix(a, "/") == strings.TrimSuffix(b, "/")
}

// MatchesEndpoint reports whether a response URL hits endpoint.
// The query string and fragment of the response URL are ignored.
func MatchesEndpoint(responseURL, endpoint string) bool {
	u, err := url.Parse(responseURL)
	if err != nil {
		return false
	}
	u.RawQuery = ""
	u.Fragment = ""
	return SameURL(u.String(), endpoint)
}
