// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists search profiles and downloaded articles in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/journal-grabber/pkg/types"
)

// ErrNotFound is returned when a requested profile or article does not exist.
var ErrNotFound = errors.New("not found")

// Store manages the profile and article SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.DatabasePath and creates the
// schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if dir := filepath.Dir(cfg.DatabasePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DatabasePath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			categories TEXT NOT NULL,
			keywords TEXT NOT NULL,
			authors TEXT NOT NULL,
			max_results INTEGER NOT NULL,
			update_frequency TEXT NOT NULL,
			download_path TEXT NOT NULL,
			active INTEGER NOT NULL DEFAULT 1,
			last_run TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			arxiv_id TEXT NOT NULL,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			category TEXT,
			published TEXT,
			pdf_path TEXT,
			downloaded_at TEXT NOT NULL,
			profile_id INTEGER NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			zotero_sync_status TEXT NOT NULL DEFAULT 'none',
			UNIQUE(profile_id, arxiv_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_profile_id ON articles(profile_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_downloaded_at ON articles(downloaded_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
