// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the journal-grabber CLI.
// Subcommands cover the harvesting workflow: profile management, manual
// scrapes, the scheduler daemon, download listing, and Zotero pushes.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/journal-grabber/internal/secrets"
	"github.com/pdiddy/journal-grabber/internal/store"
	"github.com/pdiddy/journal-grabber/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds Zotero credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns the secret value for key if it exists, or fallback otherwise.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the journal-grabber CLI.
var rootCmd = &cobra.Command{
	Use:   "journal-grabber",
	Short: "Harvest arXiv articles with saved search profiles",
	Long: `journal-grabber periodically queries the arXiv API according to saved
search profiles (categories, keywords, authors, cadence), downloads matching
PDFs, records their metadata, and can forward downloaded articles to a
Zotero library.

Profiles are managed with the profile subcommand, run on demand with
scrape, and run on their cadence with the run daemon.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./journal-grabber.yaml or ~/.config/journal-grabber/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("journal-grabber")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "journal-grabber"))
		}
	}

	viper.SetEnvPrefix("JOURNAL_GRABBER")
	viper.AutomaticEnv()

	viper.SetDefault("database_path", "journal-grabber.db")
	viper.SetDefault("download_path", "downloads")
	viper.SetDefault("api_delay", 3*time.Second)
	viper.SetDefault("default_max_results", 50)
	viper.SetDefault("search_window_days", 7)
	viper.SetDefault("page_size", 100)
	viper.SetDefault("tick_interval", time.Minute)
	viper.SetDefault("http_timeout", 30*time.Second)
	viper.SetDefault("download_timeout", 60*time.Second)
	viper.SetDefault("user_agent", "journal-grabber/"+version)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// appConfig assembles the component configurations from viper and secrets.
func appConfig() types.AppConfig {
	httpCfg := types.HTTPConfig{
		Timeout:   viper.GetDuration("http_timeout"),
		UserAgent: viper.GetString("user_agent"),
	}
	downloadHTTP := httpCfg
	downloadHTTP.Timeout = viper.GetDuration("download_timeout")

	return types.AppConfig{
		Store: types.StoreConfig{
			DatabasePath: viper.GetString("database_path"),
		},
		Scrape: types.ScrapeConfig{
			HTTPConfig:        httpCfg,
			APIDelay:          viper.GetDuration("api_delay"),
			PageSize:          viper.GetInt("page_size"),
			DefaultMaxResults: viper.GetInt("default_max_results"),
			SearchWindowDays:  viper.GetInt("search_window_days"),
		},
		Download: types.DownloadConfig{
			HTTPConfig:   downloadHTTP,
			DownloadPath: viper.GetString("download_path"),
		},
		Scheduler: types.SchedulerConfig{
			TickInterval: viper.GetDuration("tick_interval"),
		},
		Zotero: types.ZoteroConfig{
			HTTPConfig: httpCfg,
			APIKey:     secretDefault("zotero-api-key", viper.GetString("zotero_api_key")),
			UserID:     secretDefault("zotero-user-id", viper.GetString("zotero_user_id")),
			GroupID:    secretDefault("zotero-group-id", viper.GetString("zotero_group_id")),
		},
	}
}

func openStore(cfg types.AppConfig) (*store.Store, error) {
	s, err := store.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.Store.DatabasePath, err)
	}
	return s, nil
}

func newHTTPClient(cfg types.HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
