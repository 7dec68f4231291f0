// Package browsertest provides in-memory browser fakes for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ibeckermayer/walink/internal/browser"
)

// Page is a scripted browser.Page. Keys of Fail and Block are
// "<op> <arg>", e.g. "click #addBotBtn", "navigate https://…", "capture #addBotSubmit", "evaluate".
type Page struct {
	mu sync.Mutex

	URL       string
	Redirects map[string]string // click selector -> URL after the click
	Fail      map[string]error
	Block     map[string]bool // wait for ctx instead of answering

	Body       []byte // returned by ClickAndCapture
	EvalResult any

	ScreenshotErr error

	Calls       []string
	Values      map[string]string
	Screenshots []string
}

// NewPage returns an empty page
func NewPage() *Page {
	return &Page{
		Redirects: map[string]string{},
		Fail:      map[string]error{},
		Block:     map[string]bool{},
		Values:    map[string]string{},
	}
}

// Called reports whether the call was made
func (p *Page) Called(call string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.Calls {
		if c == call {
			return true
		}
	}
	return false
}

func (p *Page) step(ctx context.Context, call string) error {
	p.mu.Lock()
	p.Calls = append(p.Calls, call)
	block := p.Block[call]
	err := p.Fail[call]
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return fmt.Errorf("%s: %w", call, ctx.Err())
	}
	return err
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := p.step(ctx, "navigate "+url); err != nil {
		return err
	}
	p.mu.Lock()
	p.URL = url
	p.mu.Unlock()
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, value string) error {
	if err := p.step(ctx, "fill "+selector); err != nil {
		return err
	}
	p.mu.Lock()
	p.Values[selector] = value
	p.mu.Unlock()
	return nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	if err := p.step(ctx, "click "+selector); err != nil {
		return err
	}
	p.mu.Lock()
	if u, ok := p.Redirects[selector]; ok {
		p.URL = u
	}
	p.mu.Unlock()
	return nil
}

func (p *Page) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.URL, nil
}

func (p *Page) WaitForURL(ctx context.Context, match func(string) bool) (string, error) {
	url, _ := p.Location(ctx)
	if match(url) {
		return url, nil
	}
	<-ctx.Done()
	return url, fmt.Errorf("waiting for URL: %w", ctx.Err())
}

func (p *Page) ClickAndCapture(ctx context.Context, selector, endpoint string) ([]byte, error) {
	if err := p.step(ctx, "capture "+selector); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Body, nil
}

func (p *Page) Evaluate(ctx context.Context, expression string, out any) error {
	if err := p.step(ctx, "evaluate"); err != nil {
		return err
	}
	p.mu.Lock()
	data, err := json.Marshal(p.EvalResult)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (p *Page) Screenshot(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots = append(p.Screenshots, path)
	return p.ScreenshotErr
}

// Browser counts Close calls
type Browser struct {
	mu     sync.Mutex
	page   *Page
	closes int
}

func (b *Browser) Page() browser.Page {
	return b.page
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	return nil
}

// Closes returns how many times Close was called
func (b *Browser) Closes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closes
}

// Launcher hands out Browsers wrapping Page
type Launcher struct {
	mu       sync.Mutex
	Page     *Page
	Err      error
	Browsers []*Browser
}

// NewLauncher returns a launcher serving page
func NewLauncher(page *Page) *Launcher {
	return &Launcher{Page: page}
}

func (l *Launcher) Launch(ctx context.Context) (browser.Browser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	b := &Browser{page: l.Page}
	l.Browsers = append(l.Browsers, b)
	return b, nil
}

// Launches returns how many browsers were started
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Browsers)
}

var (
	_ browser.Page     = (*Page)(nil)
	_ browser.Browser  = (*Browser)(nil)
	_ browser.Launcher = (*Launcher)(nil)
)
