// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package schedule

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/journal-grabber/internal/download"
	"github.com/pdiddy/journal-grabber/pkg/types"
)

var fixedNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

// fakeStore records TouchLastRun calls against an in-memory profile list.
type fakeStore struct {
	profiles []types.Profile
	touched  map[int64]time.Time
	listErr  error
}

func (f *fakeStore) ListProfiles(ctx context.Context, activeOnly bool) ([]types.Profile, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if !activeOnly {
		return f.profiles, nil
	}
	var active []types.Profile
	for _, p := range f.profiles {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

func (f *fakeStore) TouchLastRun(ctx context.Context, id int64, t time.Time) error {
	if f.touched == nil {
		f.touched = make(map[int64]time.Time)
	}
	f.touched[id] = t
	return nil
}

// fakeScraper returns fixed candidates, or an error for profile ids in fail.
type fakeScraper struct {
	candidates []types.Candidate
	fail       map[int64]error
	ran        []int64
}

func (f *fakeScraper) Run(ctx context.Context, p types.Profile, w io.Writer) ([]types.Candidate, error) {
	f.ran = append(f.ran, p.ID)
	if err := f.fail[p.ID]; err != nil {
		return nil, err
	}
	return f.candidates, nil
}

// fakeFetcher counts every candidate as downloaded.
type fakeFetcher struct {
	batches int
}

func (f *fakeFetcher) FetchBatch(ctx context.Context, p types.Profile, candidates []types.Candidate, w io.Writer) download.BatchResult {
	f.batches++
	return download.BatchResult{Downloaded: len(candidates)}
}

func testScheduler(store *fakeStore, scraper *fakeScraper, fetcher *fakeFetcher) *Scheduler {
	return &Scheduler{
		Store:      store,
		Scraper:    scraper,
		Downloader: fetcher,
		Now:        func() time.Time { return fixedNow },
	}
}

func TestNextRun(t *testing.T) {
	lastRun := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		p    types.Profile
		want time.Time
	}{
		{
			name: "never ran",
			p:    types.Profile{UpdateFrequency: types.FrequencyDaily},
			want: time.Time{},
		},
		{
			name: "daily",
			p:    types.Profile{UpdateFrequency: types.FrequencyDaily, LastRun: lastRun},
			want: lastRun.AddDate(0, 0, 1),
		},
		{
			name: "weekly",
			p:    types.Profile{UpdateFrequency: types.FrequencyWeekly, LastRun: lastRun},
			want: lastRun.AddDate(0, 0, 7),
		},
		{
			name: "monthly",
			p:    types.Profile{UpdateFrequency: types.FrequencyMonthly, LastRun: lastRun},
			want: lastRun.AddDate(0, 0, 30),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRun(tt.p); !got.Equal(tt.want) {
				t.Errorf("NextRun() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDue(t *testing.T) {
	tests := []struct {
		name string
		p    types.Profile
		want bool
	}{
		{
			name: "never ran is due",
			p:    types.Profile{Active: true, UpdateFrequency: types.FrequencyDaily},
			want: true,
		},
		{
			name: "interval elapsed",
			p: types.Profile{
				Active:          true,
				UpdateFrequency: types.FrequencyDaily,
				LastRun:         fixedNow.AddDate(0, 0, -2),
			},
			want: true,
		},
		{
			name: "interval boundary is due",
			p: types.Profile{
				Active:          true,
				UpdateFrequency: types.FrequencyDaily,
				LastRun:         fixedNow.AddDate(0, 0, -1),
			},
			want: true,
		},
		{
			name: "ran recently",
			p: types.Profile{
				Active:          true,
				UpdateFrequency: types.FrequencyDaily,
				LastRun:         fixedNow.Add(-time.Hour),
			},
			want: false,
		},
		{
			name: "inactive never due",
			p:    types.Profile{Active: false, UpdateFrequency: types.FrequencyDaily},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Due(tt.p, fixedNow); got != tt.want {
				t.Errorf("Due() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestRunDueRunsOnlyDueProfiles(t *testing.T) {
	store := &fakeStore{profiles: []types.Profile{
		{ID: 1, Name: "due", Active: true, UpdateFrequency: types.FrequencyDaily},
		{ID: 2, Name: "recent", Active: true, UpdateFrequency: types.FrequencyDaily, LastRun: fixedNow.Add(-time.Hour)},
		{ID: 3, Name: "paused", Active: false, UpdateFrequency: types.FrequencyDaily},
		{ID: 4, Name: "also-due", Active: true, UpdateFrequency: types.FrequencyWeekly, LastRun: fixedNow.AddDate(0, 0, -8)},
	}}
	scraper := &fakeScraper{candidates: []types.Candidate{{ArxivID: "2301.00001"}}}
	fetcher := &fakeFetcher{}
	s := testScheduler(store, scraper, fetcher)

	summary, err := s.RunDue(context.Background(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if summary.ProfilesRun != 2 {
		t.Errorf("ProfilesRun = %d, want 2", summary.ProfilesRun)
	}
	if summary.Downloaded != 2 {
		t.Errorf("Downloaded = %d, want 2", summary.Downloaded)
	}
	if len(scraper.ran) != 2 || scraper.ran[0] != 1 || scraper.ran[1] != 4 {
		t.Errorf("scraped profiles %v, want [1 4]", scraper.ran)
	}
	if _, ok := store.touched[1]; !ok {
		t.Error("last_run not updated for profile 1")
	}
	if _, ok := store.touched[4]; !ok {
		t.Error("last_run not updated for profile 4")
	}
	if _, ok := store.touched[2]; ok {
		t.Error("last_run updated for a profile that did not run")
	}
}

func TestRunDueContinuesAfterScrapeError(t *testing.T) {
	store := &fakeStore{profiles: []types.Profile{
		{ID: 1, Name: "broken", Active: true, UpdateFrequency: types.FrequencyDaily},
		{ID: 2, Name: "ok", Active: true, UpdateFrequency: types.FrequencyDaily},
	}}
	scraper := &fakeScraper{
		candidates: []types.Candidate{{ArxivID: "2301.00001"}},
		fail:       map[int64]error{1: errors.New("arXiv unreachable")},
	}
	fetcher := &fakeFetcher{}
	s := testScheduler(store, scraper, fetcher)

	var out strings.Builder
	summary, err := s.RunDue(context.Background(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.ProfilesRun != 2 {
		t.Errorf("ProfilesRun = %d, want 2", summary.ProfilesRun)
	}
	if len(summary.Errors) != 1 || !strings.Contains(summary.Errors[0], "arXiv unreachable") {
		t.Errorf("Errors = %v, want the profile 1 failure", summary.Errors)
	}
	if fetcher.batches != 1 {
		t.Errorf("fetcher ran %d batches, want 1 (profile 2 only)", fetcher.batches)
	}

	// The broken profile still advances last_run.
	if _, ok := store.touched[1]; !ok {
		t.Error("last_run not updated for the failing profile")
	}
}

func TestRunDueAbortsOnCancellation(t *testing.T) {
	store := &fakeStore{profiles: []types.Profile{
		{ID: 1, Active: true, UpdateFrequency: types.FrequencyDaily},
		{ID: 2, Active: true, UpdateFrequency: types.FrequencyDaily},
	}}
	ctx, cancel := context.WithCancel(context.Background())

	scraper := &cancellingScraper{cancel: cancel}
	s := &Scheduler{
		Store:      store,
		Scraper:    scraper,
		Downloader: &fakeFetcher{},
		Now:        func() time.Time { return fixedNow },
	}

	_, err := s.RunDue(ctx, io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if scraper.runs != 1 {
		t.Errorf("scraper ran %d times after cancellation, want 1", scraper.runs)
	}
}

// cancellingScraper cancels the context during its first run.
type cancellingScraper struct {
	cancel context.CancelFunc
	runs   int
}

func (c *cancellingScraper) Run(ctx context.Context, p types.Profile, w io.Writer) ([]types.Candidate, error) {
	c.runs++
	c.cancel()
	return nil, ctx.Err()
}

func TestRunDueListError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("database locked")}
	s := testScheduler(store, &fakeScraper{}, &fakeFetcher{})

	if _, err := s.RunDue(context.Background(), io.Discard); err == nil {
		t.Error("RunDue succeeded despite store failure")
	}
}

func TestRunProfileSkipsDownloadWithoutCandidates(t *testing.T) {
	store := &fakeStore{}
	scraper := &fakeScraper{}
	fetcher := &fakeFetcher{}
	s := testScheduler(store, scraper, fetcher)

	p := types.Profile{ID: 7, Active: true, UpdateFrequency: types.FrequencyDaily}
	result, err := s.RunProfile(context.Background(), p, io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	if fetcher.batches != 0 {
		t.Error("downloader invoked with no candidates")
	}
	if result.Total() != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
	if got := store.touched[7]; !got.Equal(fixedNow) {
		t.Errorf("last_run = %v, want %v", got, fixedNow)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	s := testScheduler(store, &fakeScraper{}, &fakeFetcher{})
	s.Config.TickInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, io.Discard) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
