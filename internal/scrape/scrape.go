// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape queries the arXiv API for articles matching a search
// profile and returns deduplicated download candidates.
package scrape

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/journal-grabber/internal/httputil"
	"github.com/pdiddy/journal-grabber/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// NetworkError wraps a transport or remote API failure. The scheduler
// reports it and moves on; there is no automatic retry at this level.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ArticleChecker reports whether an article is already stored for a profile.
// *store.Store implements it.
type ArticleChecker interface {
	HasArticle(ctx context.Context, profileID int64, arxivID string) (bool, error)
}

// Engine builds arXiv queries from profiles and collects candidates.
type Engine struct {
	Client *http.Client
	Store  ArticleChecker
	Config types.ScrapeConfig
}

// Run queries the arXiv API for the profile, paginating up to the
// profile's result cap with a client-side delay between requests. It
// filters candidates by the profile's keywords and authors, drops
// duplicates and already-downloaded articles, and returns at most
// MaxResults candidates sorted most recent first. A zero-match query
// returns an empty slice and no error.
func (e *Engine) Run(ctx context.Context, p types.Profile, w io.Writer) ([]types.Candidate, error) {
	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = e.Config.DefaultMaxResults
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	var since time.Time
	if e.Config.SearchWindowDays > 0 {
		since = time.Now().AddDate(0, 0, -e.Config.SearchWindowDays)
	}

	query := BuildQuery(p.Categories, p.Keywords, p.Authors, since)
	entries, err := e.fetchAll(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}

	// A date-windowed query that matches nothing gets one retry without
	// the window, with a reduced cap to keep the broader search bounded.
	if len(entries) == 0 && !since.IsZero() {
		fmt.Fprintf(w, "no results in %d-day window, retrying without date filter\n", e.Config.SearchWindowDays)
		reduced := maxResults
		if reduced > 20 {
			reduced = 20
		}
		query = BuildQuery(p.Categories, p.Keywords, p.Authors, time.Time{})
		if entries, err = e.fetchAll(ctx, query, reduced); err != nil {
			return nil, err
		}
		maxResults = reduced
	}

	candidates, err := e.collect(ctx, p, entries)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Published.After(candidates[j].Published)
	})
	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}
	return candidates, nil
}

// fetchAll pages through API results until maxResults entries are
// collected or a page comes back short.
func (e *Engine) fetchAll(ctx context.Context, query string, maxResults int) ([]arxivEntry, error) {
	pageSize := e.Config.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	if pageSize > maxResults {
		pageSize = maxResults
	}

	var entries []arxivEntry
	for start := 0; start < maxResults; start += pageSize {
		if start > 0 && e.Config.APIDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.Config.APIDelay):
			}
		}

		count := pageSize
		if remaining := maxResults - start; remaining < count {
			count = remaining
		}

		page, err := e.fetchPage(ctx, query, start, count)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if len(page) < count {
			break
		}
	}
	return entries, nil
}

func (e *Engine) fetchPage(ctx context.Context, query string, start, count int) ([]arxivEntry, error) {
	params := url.Values{}
	params.Set("search_query", query)
	params.Set("start", strconv.Itoa(start))
	params.Set("max_results", strconv.Itoa(count))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, e.Client, req, 0)
	if err != nil {
		return nil, &NetworkError{Op: "arXiv query", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Op: "arXiv query", Err: fmt.Errorf("HTTP %d from arXiv API", resp.StatusCode)}
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, &NetworkError{Op: "arXiv query", Err: fmt.Errorf("parsing response: %w", err)}
	}
	return feed.Entries, nil
}

// collect converts feed entries into candidates, applying the profile's
// keyword/author filters and skipping duplicates and stored articles.
func (e *Engine) collect(ctx context.Context, p types.Profile, entries []arxivEntry) ([]types.Candidate, error) {
	seen := make(map[string]bool)
	var candidates []types.Candidate

	for _, entry := range entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" || seen[arxivID] {
			continue
		}
		seen[arxivID] = true

		c := entry.toCandidate(arxivID)
		if !matchesKeywords(c, p.Keywords) || !matchesAuthors(c, p.Authors) {
			continue
		}

		if e.Store != nil {
			exists, err := e.Store.HasArticle(ctx, p.ID, arxivID)
			if err != nil {
				return nil, fmt.Errorf("checking stored articles: %w", err)
			}
			if exists {
				continue
			}
		}

		candidates = append(candidates, c)
	}
	return candidates, nil
}

// matchesKeywords requires every keyword to appear in the title or
// abstract, case-insensitively. An empty keyword list matches everything.
func matchesKeywords(c types.Candidate, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := strings.ToLower(c.Title + " " + c.Abstract)
	for _, kw := range keywords {
		if !strings.Contains(haystack, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

// matchesAuthors requires at least one profile author to match a candidate
// author. An empty author list matches everything.
func matchesAuthors(c types.Candidate, authors []string) bool {
	if len(authors) == 0 {
		return true
	}
	for _, want := range authors {
		want = strings.ToLower(want)
		for _, have := range c.Authors {
			if strings.Contains(strings.ToLower(have), want) {
				return true
			}
		}
	}
	return false
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string          `xml:"id"`
	Title      string          `xml:"title"`
	Summary    string          `xml:"summary"`
	Published  string          `xml:"published"`
	Authors    []arxivAuthor   `xml:"author"`
	Categories []arxivCategory `xml:"category"`
	Links      []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

func (e arxivEntry) toCandidate(arxivID string) types.Candidate {
	c := types.Candidate{
		ArxivID:  arxivID,
		Title:    oneLine(e.Title),
		Abstract: oneLine(e.Summary),
	}

	for _, a := range e.Authors {
		c.Authors = append(c.Authors, strings.TrimSpace(a.Name))
	}
	if len(e.Categories) > 0 {
		c.Category = e.Categories[0].Term
	}
	for _, l := range e.Links {
		if l.Type == "application/pdf" {
			c.PDFURL = l.Href
			break
		}
	}
	if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
		c.Published = t
	}
	return c
}

// oneLine collapses the multi-line whitespace arXiv puts in titles and
// abstracts.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
