package app

import (
	"io"
	"os"

	"github.com/ibeckermayer/walink/internal/browser"
	"github.com/ibeckermayer/walink/internal/config"
	"github.com/ibeckermayer/walink/internal/logging"
	"github.com/ibeckermayer/walink/internal/store"
)

// RuntimeOptions are choices made on the command line
type RuntimeOptions struct {
	Headful bool      // show the browser window whatever the config says
	Out     io.Writer // defaults to stdout
}

// Open wires an App for cfg with a local Chrome, credentials from the
// environment (and .env) and, when enabled, the history store.
// The returned close func releases the store.
func Open(cfg *config.Config, opts RuntimeOptions) (*App, func() error, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	log := logging.New(out, cfg.Output.LogLevel)

	config.LoadDotEnv()
	creds := config.CredentialsFromEnv()

	var st *store.Store
	closeFn := func() error { return nil }
	if cfg.Store.Enabled {
		path, err := cfg.StorePath()
		if err != nil {
			return nil, nil, err
		}
		if st, err = store.New(path); err != nil {
			return nil, nil, err
		}
		closeFn = st.Close
	}

	launcher := browser.ChromeLauncher{Options: browser.LaunchOptions{
		Headless:  cfg.Browser.Headless && !opts.Headful,
		UserAgent: cfg.Browser.UserAgent,
		Logger:    log,
	}}

	a, err := New(cfg, Deps{
		Launcher: launcher,
		Creds:    creds,
		Store:    st,
		Out:      out,
		Log:      log,
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return a, closeFn, nil
}
