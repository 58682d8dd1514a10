package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "journal-grabber/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScrapeConfig holds settings for the scrape engine.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIDelay is the client-side delay between consecutive arXiv API
	// requests (default 3s, per the arXiv usage policy).
	APIDelay time.Duration `json:"api_delay" yaml:"api_delay"`

	// PageSize is the number of results requested per API page (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// DefaultMaxResults caps candidates when a profile sets no limit (default 50).
	DefaultMaxResults int `json:"default_max_results" yaml:"default_max_results"`

	// SearchWindowDays restricts queries to recent submissions (default 7).
	// Zero disables the date filter.
	SearchWindowDays int `json:"search_window_days" yaml:"search_window_days"`
}

// DownloadConfig holds settings for the PDF downloader.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadPath is the base directory for PDFs when a profile does not
	// set its own path.
	DownloadPath string `json:"download_path" yaml:"download_path"`
}

// SchedulerConfig holds settings for the scheduler loop.
type SchedulerConfig struct {
	// TickInterval is how often due profiles are checked (default 1m).
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval"`
}

// ZoteroConfig holds credentials and settings for the Zotero forwarder.
type ZoteroConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the Zotero Web API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// UserID selects the user library to write to.
	UserID string `json:"user_id,omitempty" yaml:"user_id,omitempty"`

	// GroupID, when set, selects a group library instead of the user library.
	GroupID string `json:"group_id,omitempty" yaml:"group_id,omitempty"`
}

// StoreConfig holds settings for the profile/article store.
type StoreConfig struct {
	// DatabasePath is the SQLite database file path.
	DatabasePath string `json:"database_path" yaml:"database_path"`
}

// AppConfig groups all component configurations.
type AppConfig struct {
	Store     StoreConfig     `json:"store" yaml:"store"`
	Scrape    ScrapeConfig    `json:"scrape" yaml:"scrape"`
	Download  DownloadConfig  `json:"download" yaml:"download"`
	Scheduler SchedulerConfig `json:"scheduler" yaml:"scheduler"`
	Zotero    ZoteroConfig    `json:"zotero" yaml:"zotero"`
}
