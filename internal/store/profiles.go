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

// CreateProfile inserts a new profile and sets its ID and CreatedAt.
func (s *Store) CreateProfile(ctx context.Context, p *types.Profile) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.CreatedAt = p.CreatedAt.Truncate(time.Second)

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (name, categories, keywords, authors, max_results,
			update_frequency, download_path, active, last_run, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, listJSON(p.Categories), listJSON(p.Keywords), listJSON(p.Authors),
		p.MaxResults, string(p.UpdateFrequency), p.DownloadPath, p.Active,
		timeString(p.LastRun), p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting profile %q: %w", p.Name, err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading profile id: %w", err)
	}
	return nil
}

// GetProfile returns the profile with the given id, or ErrNotFound.
func (s *Store) GetProfile(ctx context.Context, id int64) (*types.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, categories, keywords, authors, max_results,
			update_frequency, download_path, active, last_run, created_at
		 FROM profiles WHERE id = ?`, id)

	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %d: %w", id, err)
	}
	return p, nil
}

// ListProfiles returns all profiles, or only active ones when activeOnly
// is set, ordered by id.
func (s *Store) ListProfiles(ctx context.Context, activeOnly bool) ([]types.Profile, error) {
	query := `SELECT id, name, categories, keywords, authors, max_results,
			update_frequency, download_path, active, last_run, created_at
		 FROM profiles`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var profiles []types.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// UpdateProfile overwrites the stored profile identified by p.ID.
func (s *Store) UpdateProfile(ctx context.Context, p *types.Profile) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET name = ?, categories = ?, keywords = ?, authors = ?,
			max_results = ?, update_frequency = ?, download_path = ?, active = ?
		 WHERE id = ?`,
		p.Name, listJSON(p.Categories), listJSON(p.Keywords), listJSON(p.Authors),
		p.MaxResults, string(p.UpdateFrequency), p.DownloadPath, p.Active, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating profile %d: %w", p.ID, err)
	}
	return requireRow(res, p.ID)
}

// DeleteProfile removes a profile; its articles cascade.
func (s *Store) DeleteProfile(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting profile %d: %w", id, err)
	}
	return requireRow(res, id)
}

// TouchLastRun records t as the profile's most recent scrape time.
func (s *Store) TouchLastRun(ctx context.Context, id int64, t time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET last_run = ? WHERE id = ?`,
		t.UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("updating last_run for profile %d: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("profile %d: %w", id, ErrNotFound)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*types.Profile, error) {
	var (
		p          types.Profile
		categories string
		keywords   string
		authors    string
		frequency  string
		lastRun    sql.NullString
		createdAt  string
	)

	if err := row.Scan(&p.ID, &p.Name, &categories, &keywords, &authors,
		&p.MaxResults, &frequency, &p.DownloadPath, &p.Active,
		&lastRun, &createdAt); err != nil {
		return nil, err
	}

	p.UpdateFrequency = types.Frequency(frequency)
	json.Unmarshal([]byte(categories), &p.Categories)
	json.Unmarshal([]byte(keywords), &p.Keywords)
	json.Unmarshal([]byte(authors), &p.Authors)

	if lastRun.Valid && lastRun.String != "" {
		if t, err := time.Parse(time.RFC3339, lastRun.String); err == nil {
			p.LastRun = t
		}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		p.CreatedAt = t
	}
	return &p, nil
}

func listJSON(list []string) string {
	if list == nil {
		list = []string{}
	}
	data, _ := json.Marshal(list)
	return string(data)
}

// timeString formats t for a nullable column; zero becomes empty.
func timeString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
