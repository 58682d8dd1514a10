// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches candidate PDFs, writes them atomically, and
// records downloaded articles.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/journal-grabber/pkg/types"
)

// arxivPDFBase is the arXiv PDF endpoint, used when a candidate carries no
// PDF link. Declared as a var so tests can substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// DownloadError wraps a non-2xx response or filesystem write failure for
// one candidate. Such failures are logged and skipped, never fatal to the
// batch.
type DownloadError struct {
	ArxivID string
	Err     error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("downloading %s: %v", e.ArxivID, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ArticleStore is the store surface the downloader needs. *store.Store
// implements it.
type ArticleStore interface {
	HasArticle(ctx context.Context, profileID int64, arxivID string) (bool, error)
	InsertArticle(ctx context.Context, a *types.Article) error
}

// BatchResult holds the outcome of a batch download run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the total number of candidates processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// Downloader fetches PDFs for scrape candidates and persists article rows.
type Downloader struct {
	Client *http.Client
	Store  ArticleStore
	Config types.DownloadConfig
}

// Fetch downloads one candidate for a profile. It skips candidates whose
// arXiv id is already stored for the profile. The PDF is written through a
// temp file and renamed; the article row is inserted only after the rename
// succeeds, so a failed download never creates a row.
func (d *Downloader) Fetch(ctx context.Context, p types.Profile, c types.Candidate, w io.Writer) (skipped bool, err error) {
	exists, err := d.Store.HasArticle(ctx, p.ID, c.ArxivID)
	if err != nil {
		return false, fmt.Errorf("checking article %s: %w", c.ArxivID, err)
	}
	if exists {
		fmt.Fprintf(w, "skipped: %s (already downloaded)\n", c.ArxivID)
		return true, nil
	}

	dir := p.DownloadPath
	if dir == "" {
		dir = d.Config.DownloadPath
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, &DownloadError{ArxivID: c.ArxivID, Err: fmt.Errorf("creating directory %s: %w", dir, err)}
	}

	pdfURL := c.PDFURL
	if pdfURL == "" {
		pdfURL = arxivPDFBase + cleanArxivID(c.ArxivID) + ".pdf"
	}
	pdfPath := filepath.Join(dir, cleanArxivID(c.ArxivID)+".pdf")

	fmt.Fprintf(w, "downloading: %s\n", c.ArxivID)
	if err := d.downloadFile(ctx, pdfURL, pdfPath); err != nil {
		return false, &DownloadError{ArxivID: c.ArxivID, Err: err}
	}

	if err := writeSidecar(c, strings.TrimSuffix(pdfPath, ".pdf")+".yaml"); err != nil {
		fmt.Fprintf(w, "  warning: metadata sidecar write failed: %v\n", err)
	}

	a := &types.Article{
		ArxivID:          c.ArxivID,
		Title:            c.Title,
		Authors:          c.Authors,
		Abstract:         c.Abstract,
		Category:         c.Category,
		Published:        c.Published,
		PDFPath:          pdfPath,
		DownloadedAt:     time.Now().UTC(),
		ProfileID:        p.ID,
		ZoteroSyncStatus: types.SyncNone,
	}
	if err := d.Store.InsertArticle(ctx, a); err != nil {
		// Keep file and row consistent: no row, no file.
		os.Remove(pdfPath)
		return false, fmt.Errorf("recording article %s: %w", c.ArxivID, err)
	}
	return false, nil
}

// FetchBatch processes candidates sequentially, printing per-item status.
// It continues after individual failures.
func (d *Downloader) FetchBatch(ctx context.Context, p types.Profile, candidates []types.Candidate, w io.Writer) BatchResult {
	var result BatchResult
	for _, c := range candidates {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		wasSkipped, err := d.Fetch(ctx, p, c, w)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", c.ArxivID, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadFile fetches url to destPath using a temporary file, renaming
// only after the full body is written.
func (d *Downloader) downloadFile(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.Config.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// writeSidecar writes the candidate metadata as YAML next to the PDF.
func writeSidecar(c types.Candidate, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// cleanArxivID strips a trailing version suffix (e.g. "2301.07041v2" →
// "2301.07041") so re-downloads of the same paper share a filename.
func cleanArxivID(id string) string {
	if idx := strings.LastIndex(id, "v"); idx > 0 {
		version := id[idx+1:]
		if version != "" && strings.Trim(version, "0123456789") == "" {
			return id[:idx]
		}
	}
	return id
}
