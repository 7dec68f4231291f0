package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	webbrowser "github.com/pkg/browser"
	"github.com/sirupsen/logrus"

	"github.com/ibeckermayer/walink/internal/automator"
	"github.com/ibeckermayer/walink/internal/browser"
	"github.com/ibeckermayer/walink/internal/config"
	"github.com/ibeckermayer/walink/internal/notifier"
	"github.com/ibeckermayer/walink/internal/report"
	"github.com/ibeckermayer/walink/internal/scheduler"
	"github.com/ibeckermayer/walink/internal/scraper"
	"github.com/ibeckermayer/walink/internal/store"
	"github.com/ibeckermayer/walink/internal/syncer"
	"github.com/ibeckermayer/walink/internal/types"
)

// ErrNoStore is returned by History when run history is disabled
var ErrNoStore = errors.New("run history is disabled ([store] enabled = false)")

// Deps are the pieces of App that outlive a config reload
type Deps struct {
	Launcher browser.Launcher
	Creds    config.Credentials
	Store    *store.Store // nil disables history
	Out      io.Writer    // console report, defaults to stdout
	Log      logrus.FieldLogger

	// QRDir and OpenFile default to the cache dir and the desktop opener
	QRDir    string
	OpenFile func(path string) error
}

// App holds the application state.
type App struct {
	mu   sync.RWMutex
	deps Deps

	// Mutable fields - use getSnapshot() for concurrent access.
	config   *config.Config
	auto     *automator.Automator
	scraper  *scraper.Scraper
	syncer   *syncer.Syncer
	notifier *notifier.Notifier
}

// snapshot holds fields that may be replaced by ReloadConfig.
type snapshot struct {
	config   *config.Config
	auto     *automator.Automator
	scraper  *scraper.Scraper
	syncer   *syncer.Syncer
	notifier *notifier.Notifier
}

// getSnapshot returns a snapshot of mutable fields under read lock.
func (a *App) getSnapshot() snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return snapshot{
		config:   a.config,
		auto:     a.auto,
		scraper:  a.scraper,
		syncer:   a.syncer,
		notifier: a.notifier,
	}
}

// New creates a new App instance.
func New(cfg *config.Config, deps Deps) (*App, error) {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if deps.OpenFile == nil {
		deps.OpenFile = webbrowser.OpenFile
	}

	a := &App{deps: deps}
	if err := a.apply(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// apply rebuilds every config-dependent component from cfg
func (a *App) apply(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var n *notifier.Notifier
	if cfg.Email.Enabled {
		var err error
		if n, err = notifier.NewFromConfig(cfg.Email); err != nil {
			return err
		}
	}

	auto := automator.New(a.deps.Launcher, a.deps.Creds, automator.OptionsFromConfig(cfg), a.deps.Log)
	sc := scraper.New(cfg.Service.BotsURL, cfg.Timeouts.Navigation.Std(), a.deps.Log)
	sy := syncer.New(cfg.Sync.CallbackURLs, cfg.Sync.Secret, cfg.Sync.RequestTimeout.Std(), a.deps.Log)

	a.mu.Lock()
	a.config = cfg
	a.auto = auto
	a.scraper = sc
	a.syncer = sy
	a.notifier = n
	a.mu.Unlock()
	return nil
}

// ReloadConfig reloads the configuration from path.
// The running config is kept when the new one does not load or validate.
func (a *App) ReloadConfig(path string) error {
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	if err := a.apply(cfg); err != nil {
		return err
	}
	a.deps.Log.Info("Configuration reloaded")
	return nil
}

// Logger returns the logger every component writes to
func (a *App) Logger() logrus.FieldLogger {
	return a.deps.Log
}

// Config returns the active configuration
func (a *App) Config() *config.Config {
	return a.getSnapshot().config
}

// Link runs the link workflow, prints the report and records the run.
// The error is non-nil only for configuration problems.
func (a *App) Link(ctx context.Context, method automator.Method) (*types.Outcome, error) {
	s := a.getSnapshot()
	log := a.deps.Log

	o, err := s.auto.Link(ctx, method)
	if err != nil {
		return nil, err
	}

	if err := report.Write(a.deps.Out, o); err != nil {
		log.WithError(err).Warn("could not write report")
	}

	if a.deps.Store != nil {
		if err := a.deps.Store.SaveRun(o); err != nil {
			log.WithError(err).Warn("could not record run")
		}
	}

	if o.Status.Succeeded() && o.Method == types.MethodQR {
		a.saveQR(o, s.config.Link.OpenQR)
	}

	if s.notifier != nil {
		if err := s.notifier.SendOutcome(o); err != nil {
			log.WithError(err).Warn("could not email report")
		} else {
			log.Info("Report emailed")
		}
	}

	return o, nil
}

// saveQR writes the QR image to the cache and optionally opens it
func (a *App) saveQR(o *types.Outcome, open bool) {
	log := a.deps.Log
	if !strings.HasPrefix(o.Code, "data:") {
		return
	}

	dir := a.deps.QRDir
	if dir == "" {
		var err error
		if dir, err = store.QRCacheDir(); err != nil {
			log.WithError(err).Warn("could not locate QR cache dir")
			return
		}
	}

	path, err := store.SaveQRImage(dir, o.Code)
	if err != nil {
		log.WithError(err).Warn("could not save QR image")
		return
	}
	log.Infof("QR image saved to: %s", path)

	if open {
		if err := a.deps.OpenFile(path); err != nil {
			log.WithError(err).Warn("could not open QR image")
		}
	}
}

// Sync logs in, reads the bot list and pushes it to the callback URLs.
// Returns the number of bots found.
func (a *App) Sync(ctx context.Context) (int, error) {
	s := a.getSnapshot()
	log := a.deps.Log

	log.Info("🚀 Starting bot sync...")
	var bots []types.Bot
	err := s.auto.WithSession(ctx, func(ctx context.Context, page browser.Page) error {
		var err error
		bots, err = s.scraper.ScrapeBots(ctx, page)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("sync failed: %w", err)
	}

	if a.deps.Store != nil {
		if err := a.deps.Store.SaveBots(bots, time.Now()); err != nil {
			log.WithError(err).Warn("could not record bot snapshot")
		}
	}

	if err := s.syncer.Push(ctx, bots); err != nil {
		return len(bots), fmt.Errorf("sync failed: %w", err)
	}

	log.Infof("🏁 Bot sync finished (%d bots)", len(bots))
	return len(bots), nil
}

// SyncJob adapts Sync to the scheduler
func (a *App) SyncJob() scheduler.Job {
	return func(ctx context.Context) error {
		_, err := a.Sync(ctx)
		return err
	}
}

// History returns the most recent link runs, newest first
func (a *App) History(limit int) ([]types.Outcome, error) {
	if a.deps.Store == nil {
		return nil, ErrNoStore
	}
	return a.deps.Store.RecentRuns(limit)
}

// LatestBots returns the most recent bot snapshot
func (a *App) LatestBots() ([]types.Bot, time.Time, error) {
	if a.deps.Store == nil {
		return nil, time.Time{}, ErrNoStore
	}
	return a.deps.Store.LatestBots()
}
