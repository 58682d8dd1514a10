// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schedule runs due search profiles on their configured cadence.
// Profiles run strictly one at a time so the process never issues
// concurrent requests against the arXiv API.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/journal-grabber/internal/download"
	"github.com/pdiddy/journal-grabber/pkg/types"
)

// NextRun returns when the profile is next eligible to run. A profile
// that never ran is eligible immediately (zero time).
func NextRun(p types.Profile) time.Time {
	if p.LastRun.IsZero() {
		return time.Time{}
	}
	return p.LastRun.Add(p.UpdateFrequency.Interval())
}

// Due reports whether the profile should run at now. Inactive profiles
// are never due.
func Due(p types.Profile, now time.Time) bool {
	if !p.Active {
		return false
	}
	next := NextRun(p)
	return next.IsZero() || !now.Before(next)
}

// ProfileStore is the store surface the scheduler needs. *store.Store
// implements it.
type ProfileStore interface {
	ListProfiles(ctx context.Context, activeOnly bool) ([]types.Profile, error)
	TouchLastRun(ctx context.Context, id int64, t time.Time) error
}

// Scraper produces download candidates for a profile. *scrape.Engine
// implements it.
type Scraper interface {
	Run(ctx context.Context, p types.Profile, w io.Writer) ([]types.Candidate, error)
}

// Fetcher downloads a batch of candidates. *download.Downloader implements it.
type Fetcher interface {
	FetchBatch(ctx context.Context, p types.Profile, candidates []types.Candidate, w io.Writer) download.BatchResult
}

// RunSummary holds counts from one scheduler pass.
type RunSummary struct {
	ProfilesRun int
	Downloaded  int
	Skipped     int
	Failed      int
	Errors      []string
}

// Scheduler wakes on a fixed tick and runs due profiles sequentially
// through the scrape engine and downloader.
type Scheduler struct {
	Store      ProfileStore
	Scraper    Scraper
	Downloader Fetcher
	Config     types.SchedulerConfig

	// Now is the clock source; tests substitute a fixed time. Nil means
	// time.Now.
	Now func() time.Time
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RunDue performs one pass: every active profile whose cadence has
// elapsed is scraped and downloaded, one profile at a time. Per-profile
// errors are collected in the summary and never abort the pass.
func (s *Scheduler) RunDue(ctx context.Context, w io.Writer) (RunSummary, error) {
	profiles, err := s.Store.ListProfiles(ctx, true)
	if err != nil {
		return RunSummary{}, fmt.Errorf("listing profiles: %w", err)
	}

	var summary RunSummary
	for _, p := range profiles {
		if !Due(p, s.now()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		fmt.Fprintf(w, "running profile %d (%s)\n", p.ID, p.Name)
		result, err := s.RunProfile(ctx, p, w)
		summary.ProfilesRun++
		summary.Downloaded += result.Downloaded
		summary.Skipped += result.Skipped
		summary.Failed += result.Failed
		if err != nil {
			// Cancellation aborts the whole pass; anything else is
			// reported and the next profile proceeds.
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			msg := fmt.Sprintf("profile %d (%s): %v", p.ID, p.Name, err)
			summary.Errors = append(summary.Errors, msg)
			fmt.Fprintf(w, "warning: %s\n", msg)
		}
	}
	return summary, nil
}

// RunProfile scrapes and downloads a single profile and records the run
// time. last_run advances even when the scrape fails, so a broken query
// cannot put a profile into a hot retry loop.
func (s *Scheduler) RunProfile(ctx context.Context, p types.Profile, w io.Writer) (download.BatchResult, error) {
	candidates, scrapeErr := s.Scraper.Run(ctx, p, w)

	var result download.BatchResult
	if scrapeErr == nil && len(candidates) > 0 {
		result = s.Downloader.FetchBatch(ctx, p, candidates, w)
	}

	if err := s.Store.TouchLastRun(ctx, p.ID, s.now()); err != nil {
		fmt.Fprintf(w, "warning: updating last_run for profile %d: %v\n", p.ID, err)
	}
	return result, scrapeErr
}

// Run loops until the context is cancelled, performing one pass
// immediately and then one per tick.
func (s *Scheduler) Run(ctx context.Context, w io.Writer) error {
	tick := s.Config.TickInterval
	if tick <= 0 {
		tick = time.Minute
	}

	if _, err := s.RunDue(ctx, w); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(w, "warning: scheduler pass failed: %v\n", err)
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunDue(ctx, w); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				fmt.Fprintf(w, "warning: scheduler pass failed: %v\n", err)
			}
		}
	}
}
