package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "List downloaded articles",
	RunE:  runArticles,
}

func init() {
	articlesCmd.Flags().Int64("profile", 0, "filter by profile id")
	articlesCmd.Flags().Int("limit", 20, "maximum number of articles to list")
	articlesCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(articlesCmd)
}

func runArticles(cmd *cobra.Command, args []string) error {
	profileID, _ := cmd.Flags().GetInt64("profile")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	s, err := openStore(appConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	articles, err := s.ListArticles(context.Background(), profileID, limit)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(articles)
	}

	if len(articles) == 0 {
		fmt.Println("No articles downloaded.")
		return nil
	}

	fmt.Printf("%-4s  %-14s  %-50s  %-8s  %-10s  %s\n",
		"ID", "arXiv", "Title", "Cat", "Synced", "Downloaded")
	fmt.Println(strings.Repeat("-", 110))
	for _, a := range articles {
		title := a.Title
		if len(title) > 50 {
			title = title[:47] + "..."
		}
		fmt.Printf("%-4d  %-14s  %-50s  %-8s  %-10s  %s\n",
			a.ID, a.ArxivID, title, a.Category, a.ZoteroSyncStatus,
			a.DownloadedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d article(s)\n", len(articles))
	return nil
}
