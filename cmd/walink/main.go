// Command walink links WhatsApp bots on the bot service and keeps their
// statistics in sync.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/walink/internal/app"
	"github.com/ibeckermayer/walink/internal/config"
)

var (
	configPath string
	headful    bool
)

func main() {
	// Ctrl+C cancels the running command so browsers and the store are closed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs the command line in args. Every command stops when ctx ends.
func execute(ctx context.Context, args []string) error {
	cmd := rootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "walink",
		Short:         "Link WhatsApp bots by QR or pairing code and sync their statistics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $WALINK_CONFIG or the user config dir)")
	cmd.PersistentFlags().BoolVar(&headful, "headful", false, "show the browser window")

	cmd.AddCommand(
		qrCmd(),
		pairingCmd(),
		syncCmd(),
		scheduleCmd(),
		historyCmd(),
		openCmd(),
		botTestCmd(),
	)
	return cmd
}

// resolveConfigPath returns --config or the default location
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.ConfigPath()
}

// loadConfig resolves and reads the config, writing defaults on first run
func loadConfig() (*config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, err
	}
	if created {
		fmt.Fprintf(os.Stderr, "Created default config at: %s\n", path)
	}
	return cfg, nil
}

// openApp loads the config and wires the app. Callers must call the
// returned close func.
func openApp() (*app.App, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return app.Open(cfg, app.RuntimeOptions{Headful: headful})
}
