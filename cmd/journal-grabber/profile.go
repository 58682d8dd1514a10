package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/journal-grabber/internal/scrape"
	"github.com/pdiddy/journal-grabber/pkg/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage search profiles",
	Long: `Profile manages saved search configurations: the arXiv categories,
keywords, and authors to search for, how many results to keep per run, the
re-scrape cadence, and where PDFs are saved.`,
}

var profileAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a search profile",
	RunE:  runProfileAdd,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List search profiles",
	RunE:  runProfileList,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update [profile-id]",
	Short: "Update a search profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUpdate,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete [profile-id]",
	Short: "Delete a search profile and its article records",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

func init() {
	for _, cmd := range []*cobra.Command{profileAddCmd, profileUpdateCmd} {
		cmd.Flags().String("name", "", "profile name")
		cmd.Flags().StringSlice("categories", nil, "arXiv category codes (e.g. cs.AI,cs.LG)")
		cmd.Flags().StringSlice("keywords", nil, "keywords that must match title or abstract")
		cmd.Flags().StringSlice("authors", nil, "author names to match")
		cmd.Flags().StringSlice("topics", nil, "mixed list split into categories and keywords")
		cmd.Flags().Int("max-results", 0, "result cap per scrape (default from config)")
		cmd.Flags().String("frequency", "", "cadence: daily, weekly, or monthly")
		cmd.Flags().String("download-path", "", "PDF directory (default from config)")
		cmd.Flags().Bool("inactive", false, "create or mark the profile as inactive")
	}

	profileCmd.AddCommand(profileAddCmd, profileListCmd, profileUpdateCmd, profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileAdd(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		return fmt.Errorf("provide a profile name with --name")
	}

	frequency := types.FrequencyDaily
	if f, _ := cmd.Flags().GetString("frequency"); f != "" {
		var err error
		if frequency, err = types.ParseFrequency(f); err != nil {
			return err
		}
	}

	categories, _ := cmd.Flags().GetStringSlice("categories")
	keywords, _ := cmd.Flags().GetStringSlice("keywords")
	if topics, _ := cmd.Flags().GetStringSlice("topics"); len(topics) > 0 {
		cats, kws := scrape.ClassifyTopics(topics)
		categories = append(categories, cats...)
		keywords = append(keywords, kws...)
	}
	authors, _ := cmd.Flags().GetStringSlice("authors")

	if len(categories) == 0 && len(keywords) == 0 && len(authors) == 0 {
		return fmt.Errorf("provide at least one category, keyword, or author")
	}

	maxResults, _ := cmd.Flags().GetInt("max-results")
	downloadPath, _ := cmd.Flags().GetString("download-path")
	inactive, _ := cmd.Flags().GetBool("inactive")

	p := types.Profile{
		Name:            name,
		Categories:      categories,
		Keywords:        keywords,
		Authors:         authors,
		MaxResults:      maxResults,
		UpdateFrequency: frequency,
		DownloadPath:    downloadPath,
		Active:          !inactive,
	}

	s, err := openStore(appConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.CreateProfile(context.Background(), &p); err != nil {
		return err
	}
	fmt.Printf("Created profile %d (%s)\n", p.ID, p.Name)
	return nil
}

func runProfileList(cmd *cobra.Command, args []string) error {
	s, err := openStore(appConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	profiles, err := s.ListProfiles(context.Background(), false)
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles.")
		return nil
	}

	fmt.Printf("%-4s  %-20s  %-24s  %-8s  %-7s  %s\n",
		"ID", "Name", "Terms", "Cadence", "Active", "Last run")
	fmt.Println(strings.Repeat("-", 90))
	for _, p := range profiles {
		terms := strings.Join(append(append([]string{}, p.Categories...), p.Keywords...), ",")
		if len(terms) > 24 {
			terms = terms[:21] + "..."
		}
		lastRun := "never"
		if !p.LastRun.IsZero() {
			lastRun = p.LastRun.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("%-4d  %-20s  %-24s  %-8s  %-7t  %s\n",
			p.ID, p.Name, terms, p.UpdateFrequency, p.Active, lastRun)
	}
	return nil
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid profile id %q", args[0])
	}

	s, err := openStore(appConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	p, err := s.GetProfile(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("name") {
		p.Name, _ = cmd.Flags().GetString("name")
	}
	if cmd.Flags().Changed("categories") {
		p.Categories, _ = cmd.Flags().GetStringSlice("categories")
	}
	if cmd.Flags().Changed("keywords") {
		p.Keywords, _ = cmd.Flags().GetStringSlice("keywords")
	}
	if cmd.Flags().Changed("authors") {
		p.Authors, _ = cmd.Flags().GetStringSlice("authors")
	}
	if cmd.Flags().Changed("topics") {
		topics, _ := cmd.Flags().GetStringSlice("topics")
		p.Categories, p.Keywords = scrape.ClassifyTopics(topics)
	}
	if cmd.Flags().Changed("max-results") {
		p.MaxResults, _ = cmd.Flags().GetInt("max-results")
	}
	if cmd.Flags().Changed("frequency") {
		f, _ := cmd.Flags().GetString("frequency")
		if p.UpdateFrequency, err = types.ParseFrequency(f); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("download-path") {
		p.DownloadPath, _ = cmd.Flags().GetString("download-path")
	}
	if cmd.Flags().Changed("inactive") {
		inactive, _ := cmd.Flags().GetBool("inactive")
		p.Active = !inactive
	}

	if err := s.UpdateProfile(ctx, p); err != nil {
		return err
	}
	fmt.Printf("Updated profile %d (%s)\n", p.ID, p.Name)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid profile id %q", args[0])
	}

	s, err := openStore(appConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.DeleteProfile(context.Background(), id); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted profile %d\n", id)
	return nil
}
