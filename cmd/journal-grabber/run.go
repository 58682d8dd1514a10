package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/journal-grabber/internal/download"
	"github.com/pdiddy/journal-grabber/internal/schedule"
	"github.com/pdiddy/journal-grabber/internal/scrape"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler daemon",
	Long: `Run starts the scheduler loop: on each tick every active profile whose
cadence has elapsed is scraped and downloaded, one profile at a time. The
loop runs until interrupted.`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().Duration("tick", 0, "scheduler tick interval (default 1m)")

	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg := appConfig()
	if tick, _ := cmd.Flags().GetDuration("tick"); tick > 0 {
		cfg.Scheduler.TickInterval = tick
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	scheduler := &schedule.Scheduler{
		Store: s,
		Scraper: &scrape.Engine{
			Client: newHTTPClient(cfg.Scrape.HTTPConfig),
			Store:  s,
			Config: cfg.Scrape,
		},
		Downloader: &download.Downloader{
			Client: newHTTPClient(cfg.Download.HTTPConfig),
			Store:  s,
			Config: cfg.Download,
		},
		Config: cfg.Scheduler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Scheduler running (tick %s); press Ctrl-C to stop.\n", cfg.Scheduler.TickInterval)
	if err := scheduler.Run(ctx, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Println("Scheduler stopped.")
	return nil
}
