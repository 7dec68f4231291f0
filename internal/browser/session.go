package browser

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// LaunchOptions configures a Chrome process
type LaunchOptions struct {
	Headless  bool
	UserAgent string
	Logger    logrus.FieldLogger
}

// ChromeLauncher launches local Chrome sessions through chromedp
type ChromeLauncher struct {
	Options LaunchOptions
}

// Launch implements Launcher
func (l ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	s, err := Launch(ctx, l.Options)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Session is one Chrome process with a single tab.
// It implements both Browser and Page.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Launch starts Chrome and opens a tab with network events enabled.
// The process dies when ctx is cancelled or Close is called.
func Launch(ctx context.Context, opts LaunchOptions) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, Options(opts.Headless, opts.UserAgent)...)
	tabCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(log.Debugf),
		chromedp.WithErrorf(log.Debugf),
	)

	// The first Run starts the browser.
	if err := chromedp.Run(tabCtx, network.Enable()); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Session{
		ctx:         tabCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
	}, nil
}

// Page implements Browser
func (s *Session) Page() Page {
	return s
}

// Close shuts the tab and the browser process. Later calls are no-ops.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = chromedp.Cancel(s.ctx)
		s.cancel()
		s.allocCancel()
	})
	return s.closeErr
}

// bind derives a chromedp context from the session that also honours the
// deadline and cancellation of the caller's ctx.
func (s *Session) bind(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if s.closed.Load() {
		return nil, nil, ErrClosed
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	if dl, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, dl)
		parent := cancel
		cancel = func() {
			cancelDeadline()
			parent()
		}
	}
	stop := context.AfterFunc(ctx, cancel)

	return runCtx, func() {
		stop()
		cancel()
	}, nil
}

// run executes chromedp actions under ctx
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel, err := s.bind(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	return wrapCtxErr(runCtx, chromedp.Run(runCtx, actions...))
}

// wrapCtxErr makes a deadline visible to errors.Is even when chromedp
// reports it as a generic failure
func wrapCtxErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *Session) Fill(ctx context.Context, selector, value string) error {
	err := s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to fill %s: %w", selector, err)
	}
	return nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

func (s *Session) WaitForURL(ctx context.Context, match func(string) bool) (string, error) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	var last string
	for {
		url, err := s.Location(ctx)
		if err == nil {
			last = url
			if match(url) {
				return url, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, fmt.Errorf("waiting for URL (last %q): %w", last, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Session) ClickAndCapture(ctx context.Context, selector, endpoint string) ([]byte, error) {
	runCtx, cancel, err := s.bind(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	type result struct {
		id  network.RequestID
		err error
	}

	var (
		mu      sync.Mutex
		watched network.RequestID
	)
	done := make(chan result, 1)
	deliver := func(r result) {
		select {
		case done <- r:
		default:
		}
	}

	// The listener is removed when listenCtx ends.
	listenCtx, stopListening := context.WithCancel(runCtx)
	defer stopListening()

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			if e.Response == nil || !MatchesEndpoint(e.Response.URL, endpoint) {
				return
			}
			mu.Lock()
			if watched == "" {
				watched = e.RequestID
			}
			mu.Unlock()
		case *network.EventLoadingFinished:
			mu.Lock()
			hit := watched != "" && e.RequestID == watched
			mu.Unlock()
			if hit {
				deliver(result{id: e.RequestID})
			}
		case *network.EventLoadingFailed:
			mu.Lock()
			hit := watched != "" && e.RequestID == watched
			mu.Unlock()
			if hit {
				deliver(result{err: fmt.Errorf("response from %s failed to load: %s", endpoint, e.ErrorText)})
			}
		}
	})

	if err := chromedp.Run(runCtx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return nil, fmt.Errorf("failed to click %s: %w", selector, wrapCtxErr(runCtx, err))
	}

	var r result
	select {
	case r = <-done:
	case <-runCtx.Done():
		return nil, fmt.Errorf("waiting for response from %s: %w", endpoint, runCtx.Err())
	}
	if r.err != nil {
		return nil, r.err
	}

	var body []byte
	err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetResponseBody(r.id).Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", wrapCtxErr(runCtx, err))
	}

	return body, nil
}

func (s *Session) Evaluate(ctx context.Context, expression string, out any) error {
	if err := s.run(ctx, chromedp.Evaluate(expression, out)); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}

// Screenshot writes a PNG of the viewport to path, replacing any existing file
func (s *Session) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return os.WriteFile(path, buf, 0644)
}

var (
	_ Browser  = (*Session)(nil)
	_ Page     = (*Session)(nil)
	_ Launcher = ChromeLauncher{}
)
