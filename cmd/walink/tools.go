package main

import (
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"

	webbrowser "github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/ibeckermayer/walink/internal/browser"
	"github.com/ibeckermayer/walink/internal/config"
	"github.com/ibeckermayer/walink/internal/logging"
)

const botTestURL = "https://bot.sannysoft.com"

func historyCmd() *cobra.Command {
	var (
		limit int
		bots  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent link runs, or the last synced bot list with --bots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()

			if bots {
				list, at, err := a.LatestBots()
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(w, "No bot snapshot yet. Run 'walink sync' first.")
					return nil
				}
				fmt.Fprintf(w, "Synced %s\n", at.Local().Format("2006-01-02 15:04"))
				fmt.Fprintln(w, "BOT\tSENT\tSTATUS")
				for _, b := range list {
					fmt.Fprintf(w, "%s\t%d\t%s\n", b.ID, b.SentCount, b.Status)
				}
				return nil
			}

			runs, err := a.History(limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "STARTED\tMETHOD\tSTATUS\tSESSION\tMESSAGE")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04"), r.Method, r.Status, r.Session, r.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	cmd.Flags().BoolVar(&bots, "bots", false, "show the last synced bot list instead")
	return cmd
}

func openCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "open <config|cache>",
		Short:     "Open the config file or the cache directory",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"config", "cache"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				path string
				err  error
			)
			switch args[0] {
			case "config":
				path, err = resolveConfigPath()
			case "cache":
				path, err = config.CacheDir()
			}
			if err != nil {
				return fmt.Errorf("failed to get path: %w", err)
			}

			if err := webbrowser.OpenFile(path); err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			return nil
		},
	}
}

// botTestCmd opens bot.sannysoft.com with the same browser options as the
// workflows so the fingerprint can be audited by eye.
func botTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot-test",
		Short: "Open " + botTestURL + " to audit the browser fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logging.New(os.Stdout, cfg.Output.LogLevel)

			log.Infof("Opening %s with the workflow browser options...", botTestURL)
			s, err := browser.Launch(cmd.Context(), browser.LaunchOptions{
				UserAgent: cfg.Browser.UserAgent,
				Logger:    log,
			})
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Navigate(cmd.Context(), botTestURL); err != nil {
				return err
			}

			fmt.Println("Press Enter to close the browser...")
			bufio.NewReader(os.Stdin).ReadString('\n')

			log.Info("Done.")
			return nil
		},
	}
}
