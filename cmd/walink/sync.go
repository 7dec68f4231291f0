package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/walink/internal/scheduler"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push the bot list and sent counts to the callback URLs once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			_, err = a.Sync(cmd.Context())
			return err
		},
	}
}

func scheduleCmd() *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the bot sync on the [sync] schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, closeApp, err := openApp()
			if err != nil {
				return err
			}
			defer closeApp()

			path, err := resolveConfigPath()
			if err != nil {
				return err
			}

			cfg := a.Config()
			s, err := scheduler.New(cfg.Sync.Timezone, a.Logger())
			if err != nil {
				return err
			}

			// Config edits apply from the next run; schedule and timezone need a restart.
			job := func(ctx context.Context) error {
				if err := a.ReloadConfig(path); err != nil {
					a.Logger().Warnf("Keeping previous config: %v", err)
				}
				return a.SyncJob()(ctx)
			}
			if err := s.AddSyncJob(cfg.Sync.Schedule, job); err != nil {
				return err
			}

			ctx := cmd.Context()

			if now {
				if err := s.RunNow(ctx, scheduler.SyncJobName, job); err != nil {
					a.Logger().Errorf("Initial sync failed: %v", err)
				}
			}

			s.Start()
			for _, info := range s.ListJobs() {
				fmt.Printf("Next %s run: %s\n", info.Name, info.NextRun.Format("2006-01-02 15:04 MST"))
			}

			<-ctx.Done()
			<-s.Stop().Done()
			return nil
		},
	}

	cmd.Flags().BoolVar(&now, "now", false, "sync once immediately before waiting for the schedule")
	return cmd
}
