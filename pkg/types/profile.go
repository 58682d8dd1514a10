// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data model shared across journal-grabber:
// search profiles, downloaded articles, and per-component configuration.
package types

import (
	"fmt"
	"time"
)

// Frequency is the re-scrape cadence for a search profile.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency validates a cadence string.
func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("invalid frequency %q: must be daily, weekly, or monthly", s)
}

// Interval returns the minimum duration between successive scrapes of a
// profile. Monthly is a fixed 30 days.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Profile is a saved search configuration. It is the source of truth for
// what to fetch from arXiv and when.
type Profile struct {
	// ID is the database row identifier.
	ID int64 `json:"id" yaml:"id"`

	// Name is the user-chosen profile name (unique).
	Name string `json:"name" yaml:"name"`

	// Categories lists arXiv category codes (e.g. "cs.AI") OR-ed together
	// in the search query.
	Categories []string `json:"categories" yaml:"categories"`

	// Keywords lists terms that must all match in title or abstract.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Authors lists author names; a match on any of them qualifies.
	Authors []string `json:"authors" yaml:"authors"`

	// MaxResults caps the number of candidates returned per scrape.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// UpdateFrequency is the re-scrape cadence.
	UpdateFrequency Frequency `json:"update_frequency" yaml:"update_frequency"`

	// DownloadPath is the directory PDFs are saved to. Empty means the
	// configured default path.
	DownloadPath string `json:"download_path" yaml:"download_path"`

	// Active controls whether the scheduler runs this profile.
	Active bool `json:"active" yaml:"active"`

	// LastRun is the time of the most recent scrape. Zero means never run.
	LastRun time.Time `json:"last_run" yaml:"last_run"`

	// CreatedAt is the profile creation time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
