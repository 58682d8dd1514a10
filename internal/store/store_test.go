// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdiddy/journal-grabber/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{
		DatabasePath: filepath.Join(t.TempDir(), "journal-grabber.db"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProfile() types.Profile {
	return types.Profile{
		Name:            "ml-papers",
		Categories:      []string{"cs.AI", "cs.LG"},
		Keywords:        []string{"transformer"},
		Authors:         []string{"Alice Smith"},
		MaxResults:      5,
		UpdateFrequency: types.FrequencyDaily,
		DownloadPath:    "/tmp/downloads",
		Active:          true,
	}
}

func mustCreateProfile(t *testing.T, s *Store) types.Profile {
	t.Helper()
	p := sampleProfile()
	if err := s.CreateProfile(context.Background(), &p); err != nil {
		t.Fatal(err)
	}
	return p
}

func sampleArticle(profileID int64) types.Article {
	return types.Article{
		ArxivID:   "2301.07041",
		Title:     "Attention Revisited",
		Authors:   []string{"Alice Smith", "Bob Jones"},
		Abstract:  "We revisit attention.",
		Category:  "cs.LG",
		Published: time.Date(2023, 1, 17, 18, 58, 28, 0, time.UTC),
		PDFPath:   "/tmp/downloads/2301.07041.pdf",
		ProfileID: profileID,
	}
}

// --- profiles ---

func TestProfileRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := mustCreateProfile(t, s)
	if p.ID == 0 {
		t.Fatal("CreateProfile did not set ID")
	}

	got, err := s.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != p.Name {
		t.Errorf("Name = %q, want %q", got.Name, p.Name)
	}
	if len(got.Categories) != 2 || got.Categories[0] != "cs.AI" {
		t.Errorf("Categories = %v, want [cs.AI cs.LG]", got.Categories)
	}
	if got.UpdateFrequency != types.FrequencyDaily {
		t.Errorf("UpdateFrequency = %q, want daily", got.UpdateFrequency)
	}
	if !got.Active {
		t.Error("Active = false, want true")
	}
	if !got.LastRun.IsZero() {
		t.Errorf("LastRun = %v, want zero", got.LastRun)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetProfile(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListProfilesActiveOnly(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	active := sampleProfile()
	if err := s.CreateProfile(ctx, &active); err != nil {
		t.Fatal(err)
	}

	inactive := sampleProfile()
	inactive.Name = "paused"
	inactive.Active = false
	if err := s.CreateProfile(ctx, &inactive); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListProfiles(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("ListProfiles(false) returned %d profiles, want 2", len(all))
	}

	onlyActive, err := s.ListProfiles(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyActive) != 1 || onlyActive[0].ID != active.ID {
		t.Errorf("ListProfiles(true) = %v, want only profile %d", onlyActive, active.ID)
	}
}

func TestUpdateProfile(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := mustCreateProfile(t, s)
	p.Name = "renamed"
	p.Keywords = []string{"diffusion", "sampling"}
	p.UpdateFrequency = types.FrequencyWeekly
	p.Active = false

	if err := s.UpdateProfile(ctx, &p); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "renamed" || len(got.Keywords) != 2 || got.UpdateFrequency != types.FrequencyWeekly || got.Active {
		t.Errorf("profile after update = %+v", got)
	}
}

func TestDeleteProfileCascadesArticles(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := mustCreateProfile(t, s)
	a := sampleArticle(p.ID)
	if err := s.InsertArticle(ctx, &a); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteProfile(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	articles, err := s.ListArticles(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 0 {
		t.Errorf("articles remain after profile delete: %v", articles)
	}
}

func TestTouchLastRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := mustCreateProfile(t, s)
	runAt := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	if err := s.TouchLastRun(ctx, p.ID, runAt); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.LastRun.Equal(runAt) {
		t.Errorf("LastRun = %v, want %v", got.LastRun, runAt)
	}
}

// --- articles ---

func TestArticleRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := mustCreateProfile(t, s)
	a := sampleArticle(p.ID)
	if err := s.InsertArticle(ctx, &a); err != nil {
		t.Fatal(err)
	}
	if a.ID == 0 {
		t.Fatal("InsertArticle did not set ID")
	}

	got, err := s.GetArticle(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ArxivID != a.ArxivID || got.Title != a.Title || got.Category != a.Category {
		t.Errorf("article = %+v, want %+v", got, a)
	}
	if len(got.Authors) != 2 {
		t.Errorf("Authors = %v, want 2 entries", got.Authors)
	}
	if !got.Published.Equal(a.Published) {
		t.Errorf("Published = %v, want %v", got.Published, a.Published)
	}
	if got.ZoteroSyncStatus != types.SyncNone {
		t.Errorf("ZoteroSyncStatus = %q, want none", got.ZoteroSyncStatus)
	}
}

func TestArticleUniquePerProfile(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := mustCreateProfile(t, s)
	a := sampleArticle(p.ID)
	if err := s.InsertArticle(ctx, &a); err != nil {
		t.Fatal(err)
	}

	dup := sampleArticle(p.ID)
	if err := s.InsertArticle(ctx, &dup); err == nil {
		t.Error("inserting duplicate (profile, arxiv_id) succeeded, want error")
	}

	// The same arXiv id under a different profile is allowed.
	other := sampleProfile()
	other.Name = "other"
	if err := s.CreateProfile(ctx, &other); err != nil {
		t.Fatal(err)
	}
	second := sampleArticle(other.ID)
	if err := s.InsertArticle(ctx, &second); err != nil {
		t.Errorf("inserting same arXiv id for another profile: %v", err)
	}
}

func TestHasArticle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := mustCreateProfile(t, s)
	exists, err := s.HasArticle(ctx, p.ID, "2301.07041")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("HasArticle = true before insert")
	}

	a := sampleArticle(p.ID)
	if err := s.InsertArticle(ctx, &a); err != nil {
		t.Fatal(err)
	}

	exists, err = s.HasArticle(ctx, p.ID, "2301.07041")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("HasArticle = false after insert")
	}
}

func TestListArticlesOrderAndLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := mustCreateProfile(t, s)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		a := sampleArticle(p.ID)
		a.ArxivID = a.ArxivID + string(rune('a'+i))
		a.DownloadedAt = base.Add(time.Duration(i) * time.Hour)
		if err := s.InsertArticle(ctx, &a); err != nil {
			t.Fatal(err)
		}
	}

	articles, err := s.ListArticles(ctx, p.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 2 {
		t.Fatalf("ListArticles limit 2 returned %d", len(articles))
	}
	if !articles[0].DownloadedAt.After(articles[1].DownloadedAt) {
		t.Errorf("articles not ordered most recent first: %v then %v",
			articles[0].DownloadedAt, articles[1].DownloadedAt)
	}
}

func TestSetSyncStatus(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := mustCreateProfile(t, s)
	a := sampleArticle(p.ID)
	if err := s.InsertArticle(ctx, &a); err != nil {
		t.Fatal(err)
	}

	if err := s.SetSyncStatus(ctx, a.ID, types.SyncSynced); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetArticle(ctx, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ZoteroSyncStatus != types.SyncSynced {
		t.Errorf("ZoteroSyncStatus = %q, want synced", got.ZoteroSyncStatus)
	}
	// Everything else stays as written.
	if got.PDFPath != a.PDFPath || !got.DownloadedAt.Equal(a.DownloadedAt) {
		t.Error("SetSyncStatus changed immutable columns")
	}

	if err := s.SetSyncStatus(ctx, 999, types.SyncFailed); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetSyncStatus(999) = %v, want ErrNotFound", err)
	}
}
