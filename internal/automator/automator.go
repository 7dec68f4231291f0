// Package automator drives the browser workflows against the bot service.
//
// Every workflow owns one browser for its whole run: it launches it, logs in,
// does its work and closes it on every exit path.
package automator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/walink/internal/auth"
	"github.com/ibeckermayer/walink/internal/browser"
	"github.com/ibeckermayer/walink/internal/config"
)

// Options holds the service layout and the bounds of every wait
type Options struct {
	Service        config.ServiceConfig
	Timeouts       config.TimeoutsConfig
	ScreenshotPath string // empty disables failure screenshots
}

// OptionsFromConfig picks the automator settings out of cfg
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Service:        cfg.Service,
		Timeouts:       cfg.Timeouts,
		ScreenshotPath: cfg.Output.ScreenshotPath,
	}
}

// AuthError is returned when the login step fails
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "login failed: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// SessionFunc runs against a logged-in page
type SessionFunc func(ctx context.Context, page browser.Page) error

// Automator runs browser workflows with one set of credentials
type Automator struct {
	launcher browser.Launcher
	auth     *auth.Manager
	creds    config.Credentials
	opts     Options
	log      logrus.FieldLogger
	now      func() time.Time
}

// New creates an automator. Credentials are checked when a workflow starts,
// before any browser is launched.
func New(launcher browser.Launcher, creds config.Credentials, opts Options, log logrus.FieldLogger) *Automator {
	return &Automator{
		launcher: launcher,
		auth:     auth.NewManager(opts.Service, opts.Timeouts, log),
		creds:    creds,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// WithSession launches a browser, logs in and runs fn on the page.
// The browser is closed exactly once before WithSession returns.
// Missing credentials are returned as config.ErrMissingCredentials without
// launching anything; a failed login is returned as *AuthError.
func (a *Automator) WithSession(ctx context.Context, fn SessionFunc) error {
	if err := a.creds.Validate(); err != nil {
		return err
	}

	a.log.Info("1. Launching browser and logging in...")
	b, err := a.launcher.Launch(ctx)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		a.log.Info("Closing browser...")
		if err := b.Close(); err != nil {
			a.log.WithError(err).Debug("browser close reported an error")
		}
	}()

	page := b.Page()
	if _, err := a.auth.Login(ctx, page, a.creds); err != nil {
		a.log.Errorf("   ❌ Login failed: %v", err)
		return &AuthError{Err: err}
	}

	return fn(ctx, page)
}

// screenshot saves the current page for diagnosis. Failures are only logged.
func (a *Automator) screenshot(ctx context.Context, page browser.Page) string {
	if a.opts.ScreenshotPath == "" {
		return ""
	}

	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := page.Screenshot(shotCtx, a.opts.ScreenshotPath); err != nil {
		a.log.WithError(err).Warn("could not save error screenshot")
		return ""
	}

	a.log.Infof("   Error screenshot saved as '%s'.", a.opts.ScreenshotPath)
	return a.opts.ScreenshotPath
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
