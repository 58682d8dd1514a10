package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/journal-grabber/internal/zotero"
	"github.com/pdiddy/journal-grabber/pkg/types"
)

var zoteroCmd = &cobra.Command{
	Use:   "zotero",
	Short: "Forward downloaded articles to a Zotero library",
	Long: `Zotero pushes a downloaded article's metadata and PDF to the configured
Zotero library. Credentials come from .secrets/ (zotero-api-key,
zotero-user-id, zotero-group-id) or the config file. A failed push leaves
the local download untouched and can be retried.`,
}

var zoteroPushCmd = &cobra.Command{
	Use:   "push [article-id...]",
	Short: "Push one or more articles to Zotero",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runZoteroPush,
}

func init() {
	zoteroCmd.AddCommand(zoteroPushCmd)
	rootCmd.AddCommand(zoteroCmd)
}

func runZoteroPush(cmd *cobra.Command, args []string) error {
	cfg := appConfig()
	client := &zotero.Client{
		HTTP:   newHTTPClient(cfg.Zotero.HTTPConfig),
		Config: cfg.Zotero,
	}
	if !client.Configured() {
		return fmt.Errorf("zotero is not configured: set zotero-api-key and zotero-user-id (or zotero-group-id)")
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	var failed int
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid article id %q", arg)
		}

		a, err := s.GetArticle(ctx, id)
		if err != nil {
			return err
		}

		itemKey, pushErr := client.Push(ctx, *a, os.Stdout)
		status := types.SyncSynced
		if pushErr != nil {
			status = types.SyncFailed
			failed++
			fmt.Fprintf(os.Stderr, "failed: article %d: %v\n", id, pushErr)
		} else {
			fmt.Printf("synced: article %d → item %s\n", id, itemKey)
		}
		if err := s.SetSyncStatus(ctx, id, status); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d push(es) failed", failed)
	}
	return nil
}
