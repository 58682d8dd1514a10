// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SyncStatus indicates whether an article has been pushed to Zotero.
type SyncStatus string

const (
	SyncNone   SyncStatus = "none"
	SyncSynced SyncStatus = "synced"
	SyncFailed SyncStatus = "failed"
)

// Candidate is a scrape result that has not yet been downloaded.
type Candidate struct {
	// ArxivID is the version-stripped arXiv identifier (e.g. "2301.07041").
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the article authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the article abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Category is the primary arXiv category (e.g. "cs.AI").
	Category string `json:"category" yaml:"category"`

	// Published is the submission date reported by the API.
	Published time.Time `json:"published" yaml:"published"`

	// PDFURL is the PDF link from the feed entry, when present.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
}

// Article is a downloaded paper and its metadata. Rows are immutable once
// written except for ZoteroSyncStatus.
type Article struct {
	// ID is the database row identifier.
	ID int64 `json:"id" yaml:"id"`

	// ArxivID is the arXiv identifier, unique per owning profile.
	ArxivID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the article authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the article abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Category is the primary arXiv category.
	Category string `json:"category" yaml:"category"`

	// Published is the submission date reported by the API.
	Published time.Time `json:"published" yaml:"published"`

	// PDFPath is the local filesystem path to the downloaded PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// DownloadedAt is when the PDF write completed.
	DownloadedAt time.Time `json:"downloaded_at" yaml:"downloaded_at"`

	// ProfileID is the owning profile.
	ProfileID int64 `json:"profile_id" yaml:"profile_id"`

	// ZoteroSyncStatus tracks whether the article was pushed to Zotero.
	ZoteroSyncStatus SyncStatus `json:"zotero_sync_status" yaml:"zotero_sync_status"`
}
