// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/journal-grabber/pkg/types"
)

// HasArticle reports whether an article with the given arXiv id already
// exists for the profile.
func (s *Store) HasArticle(ctx context.Context, profileID int64, arxivID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM articles WHERE profile_id = ? AND arxiv_id = ?`,
		profileID, arxivID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking article %s: %w", arxivID, err)
	}
	return n > 0, nil
}

// InsertArticle persists a downloaded article and sets its ID. The
// UNIQUE(profile_id, arxiv_id) constraint rejects duplicates.
func (s *Store) InsertArticle(ctx context.Context, a *types.Article) error {
	if a.DownloadedAt.IsZero() {
		a.DownloadedAt = time.Now().UTC()
	}
	// Columns store RFC3339, so keep the in-memory value at the same
	// precision as what a later read returns.
	a.DownloadedAt = a.DownloadedAt.Truncate(time.Second)
	if a.ZoteroSyncStatus == "" {
		a.ZoteroSyncStatus = types.SyncNone
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (arxiv_id, title, authors, abstract, category,
			published, pdf_path, downloaded_at, profile_id, zotero_sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ArxivID, a.Title, listJSON(a.Authors), a.Abstract, a.Category,
		timeString(a.Published), a.PDFPath,
		a.DownloadedAt.UTC().Format(time.RFC3339), a.ProfileID,
		string(a.ZoteroSyncStatus),
	)
	if err != nil {
		return fmt.Errorf("inserting article %s: %w", a.ArxivID, err)
	}

	a.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading article id: %w", err)
	}
	return nil
}

// GetArticle returns the article with the given id, or ErrNotFound.
func (s *Store) GetArticle(ctx context.Context, id int64) (*types.Article, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, arxiv_id, title, authors, abstract, category, published,
			pdf_path, downloaded_at, profile_id, zotero_sync_status
		 FROM articles WHERE id = ?`, id)

	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("article %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading article %d: %w", id, err)
	}
	return a, nil
}

// ListArticles returns downloaded articles, most recent first. A zero
// profileID lists articles across all profiles; limit <= 0 means no limit.
func (s *Store) ListArticles(ctx context.Context, profileID int64, limit int) ([]types.Article, error) {
	query := `SELECT id, arxiv_id, title, authors, abstract, category, published,
			pdf_path, downloaded_at, profile_id, zotero_sync_status
		 FROM articles`
	var args []any
	if profileID > 0 {
		query += ` WHERE profile_id = ?`
		args = append(args, profileID)
	}
	query += ` ORDER BY downloaded_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing articles: %w", err)
	}
	defer rows.Close()

	var articles []types.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// SetSyncStatus updates an article's Zotero sync status. All other article
// columns are immutable after insert.
func (s *Store) SetSyncStatus(ctx context.Context, id int64, status types.SyncStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET zotero_sync_status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("updating sync status for article %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("article %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanArticle(row scanner) (*types.Article, error) {
	var (
		a            types.Article
		authors      sql.NullString
		abstract     sql.NullString
		category     sql.NullString
		published    sql.NullString
		pdfPath      sql.NullString
		downloadedAt string
		status       string
	)

	if err := row.Scan(&a.ID, &a.ArxivID, &a.Title, &authors, &abstract,
		&category, &published, &pdfPath, &downloadedAt, &a.ProfileID,
		&status); err != nil {
		return nil, err
	}

	if authors.Valid {
		json.Unmarshal([]byte(authors.String), &a.Authors)
	}
	a.Abstract = abstract.String
	a.Category = category.String
	a.PDFPath = pdfPath.String
	a.ZoteroSyncStatus = types.SyncStatus(status)

	if published.Valid && published.String != "" {
		if t, err := time.Parse(time.RFC3339, published.String); err == nil {
			a.Published = t
		}
	}
	if t, err := time.Parse(time.RFC3339, downloadedAt); err == nil {
		a.DownloadedAt = t
	}
	return &a, nil
}
