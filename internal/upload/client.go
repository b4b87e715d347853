// Package upload sends weekly export files to the analytics backend and
// decodes its responses.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/chargesense/internal/model"
	"github.com/theirongolddev/chargesense/internal/source"
)

const (
	uploadPath     = "/upload-weekly"
	formField      = "file"
	defaultTimeout = 60 * time.Second
	maxBodySize    = 8 << 20 // 8 MB
	maxErrorBody   = 64 << 10
	userAgent      = "chargesense/1.0"
)

var (
	// ErrMissingEndpoint means no API URL was configured.
	ErrMissingEndpoint = errors.New("API URL not defined. Set CHARGESENSE_API_URL or [upload] api_url in config.toml")
	// ErrEmptyFile is returned for zero-byte exports.
	ErrEmptyFile = errors.New("upload: file is empty")
)

// Error is a non-success response from the backend. Message is the
// server's explanation when it gave one.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Upload failed"
}

// ProgressFunc returns a writer that observes the bytes of one file as
// they are sent. It may return nil to skip progress for that file.
type ProgressFunc func(name string, size int64) io.Writer

// Client posts files to {baseURL}/upload-weekly.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	progress ProgressFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds each upload round trip. Zero or less keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithProgress reports bytes sent per file.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) { c.progress = fn }
}

// NewClient validates the base URL and builds a client.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrMissingEndpoint
	}
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("upload: invalid API URL %q", baseURL)
	}

	c := &Client{
		endpoint: baseURL + uploadPath,
		http:     &http.Client{},
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint is the full URL files are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Upload sends one export as multipart field "file" and decodes the
// analytics in the response.
func (c *Client) Upload(ctx context.Context, path string) (*model.Upload, error) {
	f, err := os.Open(path) //nolint:gosec // path is chosen by the local user
	if err != nil {
		return nil, fmt.Errorf("upload: opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("upload: stat %s: %w", path, err)
	}
	if info.Size() == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := filepath.Base(path)
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		defer func() { _ = f.Close() }()
		part, err := mw.CreateFormFile(formField, name)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		var r io.Reader = f
		if c.progress != nil {
			if w := c.progress(name, info.Size()); w != nil {
				r = io.TeeReader(f, w)
			}
		}
		if _, err := io.Copy(part, r); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, pr)
	if err != nil {
		_ = pr.Close()
		return nil, fmt.Errorf("upload: creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	slog.Debug("upload finished",
		"file", name,
		"bytes", info.Size(),
		"status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(io.LimitReader(resp.Body, maxErrorBody)),
		}
	}

	u, err := source.DecodeUpload(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return u, nil
}

// serverMessage extracts a human message from an error body. FastAPI
// style {"detail": "..."} bodies are unwrapped; anything else is used as
// plain text.
func serverMessage(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return ""
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	var obj map[string]json.RawMessage
	if json.Unmarshal(body, &obj) == nil {
		for _, key := range []string{"detail", "message", "error"} {
			var s string
			if raw, ok := obj[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
				return s
			}
		}
	}
	return text
}
