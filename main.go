package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ibeckermayer/walink/internal/app"
	"github.com/ibeckermayer/walink/internal/automator"
	"github.com/ibeckermayer/walink/internal/config"
)

// walink runs the link workflow named by [link] method once and exits.
func main() {
	path, err := config.ConfigPath()
	if err != nil {
		fail(err)
	}

	// Load or create configuration
	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		fail(err)
	}
	if created {
		fmt.Fprintf(os.Stderr, "Created default config at: %s\n", path)
	}

	method, err := automator.MethodFromConfig(cfg.Link)
	if err != nil {
		fail(err)
	}

	a, closeApp, err := app.Open(cfg, app.RuntimeOptions{})
	if err != nil {
		fail(err)
	}
	defer closeApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := a.Link(ctx, method); err != nil {
		closeApp()
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
