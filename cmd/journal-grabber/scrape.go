package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/journal-grabber/internal/download"
	"github.com/pdiddy/journal-grabber/internal/schedule"
	"github.com/pdiddy/journal-grabber/internal/scrape"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape [profile-id]",
	Short: "Run one profile immediately",
	Long: `Scrape runs a single profile outside its cadence: it queries arXiv,
downloads new matching PDFs, records them, and updates the profile's
last-run time.`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid profile id %q", args[0])
	}

	cfg := appConfig()
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return err
	}

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

	result, err := scheduler.RunProfile(ctx, *p, os.Stdout)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d download(s) failed", result.Failed)
	}
	return nil
}
