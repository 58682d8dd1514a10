// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero pushes downloaded articles to a Zotero library through
// the Zotero Web API v3: a preprint item carries the metadata and an
// imported-file attachment carries the PDF.
package zotero

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/journal-grabber/internal/httputil"
	"github.com/pdiddy/journal-grabber/pkg/types"
)

// zoteroAPIBase is the Zotero Web API endpoint. Declared as a var so tests
// can substitute an httptest server.
var zoteroAPIBase = "https://api.zotero.org"

const apiVersion = "3"

// SyncError wraps an authentication or network failure while pushing to
// Zotero. It never affects the article's local download state; the push
// is retryable by user action.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("zotero %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Client talks to one Zotero library.
type Client struct {
	HTTP   *http.Client
	Config types.ZoteroConfig
}

// Configured reports whether the client has credentials and a target library.
func (c *Client) Configured() bool {
	return c.Config.APIKey != "" && (c.Config.UserID != "" || c.Config.GroupID != "")
}

// libraryPrefix returns the API path prefix for the configured library.
// A group id takes precedence over the user library.
func (c *Client) libraryPrefix() string {
	if c.Config.GroupID != "" {
		return "/groups/" + c.Config.GroupID
	}
	return "/users/" + c.Config.UserID
}

// Push creates a preprint item for the article and, when the local PDF
// still exists, attaches it. It returns the created item key.
func (c *Client) Push(ctx context.Context, a types.Article, w io.Writer) (string, error) {
	if !c.Configured() {
		return "", &SyncError{Op: "push", Err: fmt.Errorf("API key and user or group id must be configured")}
	}

	fmt.Fprintf(w, "creating Zotero item: %s\n", a.Title)
	itemKey, err := c.CreateItem(ctx, a)
	if err != nil {
		return "", err
	}

	if a.PDFPath != "" {
		if _, statErr := os.Stat(a.PDFPath); statErr == nil {
			fmt.Fprintf(w, "attaching PDF: %s\n", filepath.Base(a.PDFPath))
			if err := c.AttachPDF(ctx, itemKey, a.PDFPath); err != nil {
				return itemKey, err
			}
		} else {
			fmt.Fprintf(w, "warning: PDF missing at %s, pushing metadata only\n", a.PDFPath)
		}
	}
	return itemKey, nil
}

// item is the Zotero wire representation of a preprint.
type item struct {
	ItemType     string    `json:"itemType"`
	Title        string    `json:"title,omitempty"`
	AbstractNote string    `json:"abstractNote,omitempty"`
	Repository   string    `json:"repository,omitempty"`
	ArchiveID    string    `json:"archiveID,omitempty"`
	URL          string    `json:"url,omitempty"`
	Date         string    `json:"date,omitempty"`
	Creators     []creator `json:"creators"`
	Tags         []tag     `json:"tags"`

	// Attachment-only fields.
	ParentItem  string `json:"parentItem,omitempty"`
	LinkMode    string `json:"linkMode,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

type creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Name        string `json:"name,omitempty"`
}

type tag struct {
	Tag string `json:"tag"`
}

// CreateItem creates the preprint item and returns its key.
func (c *Client) CreateItem(ctx context.Context, a types.Article) (string, error) {
	it := item{
		ItemType:     "preprint",
		Title:        a.Title,
		AbstractNote: a.Abstract,
		Repository:   "arXiv",
		ArchiveID:    a.ArxivID,
		URL:          "https://arxiv.org/abs/" + a.ArxivID,
		Creators:     buildCreators(a.Authors),
		Tags:         []tag{},
	}
	if !a.Published.IsZero() {
		it.Date = a.Published.Format("2006-01-02")
	}
	if a.Category != "" {
		it.Tags = append(it.Tags, tag{Tag: a.Category})
	}

	key, err := c.createItems(ctx, []item{it})
	if err != nil {
		return "", &SyncError{Op: "create item", Err: err}
	}
	return key, nil
}

// AttachPDF runs the attachment upload handshake: create an imported-file
// attachment item, request upload authorization, POST the file, then
// register the upload. A file Zotero already holds ("exists") short-circuits.
func (c *Client) AttachPDF(ctx context.Context, parentKey, pdfPath string) error {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return &SyncError{Op: "attach", Err: fmt.Errorf("reading PDF: %w", err)}
	}

	filename := filepath.Base(pdfPath)
	attachment := item{
		ItemType:    "attachment",
		LinkMode:    "imported_file",
		ParentItem:  parentKey,
		Title:       filename,
		Filename:    filename,
		ContentType: "application/pdf",
		Creators:    []creator{},
		Tags:        []tag{},
	}

	attachKey, err := c.createItems(ctx, []item{attachment})
	if err != nil {
		return &SyncError{Op: "attach", Err: fmt.Errorf("creating attachment item: %w", err)}
	}

	info, err := os.Stat(pdfPath)
	if err != nil {
		return &SyncError{Op: "attach", Err: err}
	}

	auth, err := c.authorizeUpload(ctx, attachKey, filename, data, info.ModTime())
	if err != nil {
		return &SyncError{Op: "attach", Err: err}
	}
	if auth.Exists == 1 {
		return nil
	}

	if err := c.uploadFile(ctx, auth, data); err != nil {
		return &SyncError{Op: "attach", Err: err}
	}
	if err := c.registerUpload(ctx, attachKey, auth.UploadKey); err != nil {
		return &SyncError{Op: "attach", Err: err}
	}
	return nil
}

// createItems POSTs items to the library and returns the key of the first
// successfully created item.
func (c *Client) createItems(ctx context.Context, items []item) (string, error) {
	body, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshaling items: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.libraryPrefix()+"/items", "application/json", body, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp)
	}

	var result struct {
		Successful map[string]struct {
			Key string `json:"key"`
		} `json:"successful"`
		Failed map[string]struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"failed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	if created, ok := result.Successful["0"]; ok && created.Key != "" {
		return created.Key, nil
	}
	if failure, ok := result.Failed["0"]; ok {
		return "", fmt.Errorf("item rejected (%d): %s", failure.Code, failure.Message)
	}
	return "", fmt.Errorf("no item key in response")
}

// uploadAuth is the upload authorization response.
type uploadAuth struct {
	Exists      int    `json:"exists"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Prefix      string `json:"prefix"`
	Suffix      string `json:"suffix"`
	UploadKey   string `json:"uploadKey"`
}

func (c *Client) authorizeUpload(ctx context.Context, itemKey, filename string, data []byte, mtime time.Time) (*uploadAuth, error) {
	form := url.Values{}
	form.Set("md5", fmt.Sprintf("%x", md5.Sum(data)))
	form.Set("filename", filename)
	form.Set("filesize", strconv.Itoa(len(data)))
	form.Set("mtime", strconv.FormatInt(mtime.UnixMilli(), 10))

	headers := map[string]string{"If-None-Match": "*"}
	resp, err := c.do(ctx, http.MethodPost, c.libraryPrefix()+"/items/"+itemKey+"/file",
		"application/x-www-form-urlencoded", []byte(form.Encode()), headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var auth uploadAuth
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("parsing upload authorization: %w", err)
	}
	return &auth, nil
}

// uploadFile POSTs prefix + file + suffix to the storage URL from the
// upload authorization.
func (c *Client) uploadFile(ctx context.Context, auth *uploadAuth, data []byte) error {
	var body bytes.Buffer
	body.WriteString(auth.Prefix)
	body.Write(data)
	body.WriteString(auth.Suffix)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, auth.URL, &body)
	if err != nil {
		return fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Content-Type", auth.ContentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("uploading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d from storage upload", resp.StatusCode)
	}
	return nil
}

func (c *Client) registerUpload(ctx context.Context, itemKey, uploadKey string) error {
	form := url.Values{}
	form.Set("upload", uploadKey)

	headers := map[string]string{"If-None-Match": "*"}
	resp, err := c.do(ctx, http.MethodPost, c.libraryPrefix()+"/items/"+itemKey+"/file",
		"application/x-www-form-urlencoded", []byte(form.Encode()), headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// do issues an authenticated API request, retrying on rate limits.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, zoteroAPIBase+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", apiVersion)
	req.Header.Set("Zotero-API-Key", c.Config.APIKey)
	req.Header.Set("Content-Type", contentType)
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, 0)
	if err != nil {
		return nil, fmt.Errorf("API request: %w", err)
	}
	return resp, nil
}

func apiError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("authentication failed (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
}

// buildCreators splits "First Middle Last" author names into Zotero
// creator records; single-token names use the literal name field.
func buildCreators(authors []string) []creator {
	creators := make([]creator, 0, len(authors))
	for _, name := range authors {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		parts := strings.Fields(name)
		if len(parts) >= 2 {
			creators = append(creators, creator{
				CreatorType: "author",
				FirstName:   strings.Join(parts[:len(parts)-1], " "),
				LastName:    parts[len(parts)-1],
			})
		} else {
			creators = append(creators, creator{CreatorType: "author", Name: name})
		}
	}
	return creators
}
