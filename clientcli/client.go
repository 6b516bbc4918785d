package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"github.com/sagarc03/depot"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 5 * time.Minute

	// DefaultConcurrency is the number of files UploadFiles sends at once.
	DefaultConcurrency = 4

	// uploadField is the multipart form field the server reads the file from.
	uploadField = "file"
)

// Client performs operations against a depot server.
type Client struct {
	config      *Config
	httpClient  *http.Client
	concurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithConcurrency sets how many files UploadFiles sends at once.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	// Apply defaults
	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint:  strings.TrimSuffix(cfg.Endpoint, "/"),
			Warehouse: cfg.Warehouse,
		},
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		concurrency: DefaultConcurrency,
	}

	// Apply options
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Upload sends a single file to a warehouse as a multipart form. The body
// is streamed, the file is never held in memory.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (UploadResult, error) {
	if opts.Warehouse == "" {
		return UploadResult{}, fmt.Errorf("upload: %w", ErrWarehouseRequired)
	}
	if opts.LocalPath == "" {
		return UploadResult{}, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- LocalPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return UploadResult{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return UploadResult{}, fmt.Errorf("upload %s: is a directory", opts.LocalPath)
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(opts.LocalPath)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType, err = detectContentType(file)
		if err != nil {
			return UploadResult{}, err
		}
	}

	pr, pw := io.Pipe()
	// Unblocks the writer when the server answers before reading the body.
	defer func() { _ = pr.Close() }()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
			"name":     uploadField,
			"filename": name,
		}))
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	endpoint := c.config.Endpoint + "/upload/" + url.PathEscape(opts.Warehouse)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UploadResult{}, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, parseServerError(resp.StatusCode, body)
	}

	return UploadResult{
		Warehouse:   opts.Warehouse,
		LocalPath:   opts.LocalPath,
		Name:        name,
		ContentType: contentType,
		Size:        info.Size(),
		Message:     strings.TrimSpace(string(body)),
	}, nil
}

// UploadFiles uploads several files into one warehouse concurrently.
// Results are in the order of paths; a failed upload sets Err on its result
// and does not stop the others.
func (c *Client) UploadFiles(ctx context.Context, warehouse string, paths []string) ([]UploadResult, error) {
	if len(paths) == 0 {
		return nil, ErrNoPaths
	}

	results := make([]UploadResult, len(paths))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = UploadResult{Warehouse: warehouse, LocalPath: path, Err: err}
				return nil
			}

			result, err := c.Upload(ctx, UploadOptions{Warehouse: warehouse, LocalPath: path})
			if err != nil {
				result = UploadResult{Warehouse: warehouse, LocalPath: path, Err: err}
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Download fetches a file from a warehouse.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Warehouse == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrWarehouseRequired)
	}
	if opts.Name == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrNameRequired)
	}

	endpoint := c.config.Endpoint + "/download/" + url.PathEscape(opts.Warehouse) + "/" + url.PathEscape(opts.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		Warehouse:   opts.Warehouse,
		Name:        opts.Name,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}

	// If stdout requested, return the body for the caller to handle
	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = attachmentName(resp.Header.Get("Content-Disposition"), opts.Name)
	}
	result.LocalPath = localPath

	// Create parent directories if needed
	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		_ = os.Remove(localPath)
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Storages returns the status of every warehouse in server order.
func (c *Client) Storages(ctx context.Context) (depot.Summary, error) {
	var summary depot.Summary
	if err := c.getJSON(ctx, "/storages", &summary); err != nil {
		return nil, fmt.Errorf("storages: %w", err)
	}
	return summary, nil
}

// Info looks a file name up across all warehouses.
func (c *Client) Info(ctx context.Context, name string) (depot.FileInfo, error) {
	if name == "" {
		return depot.FileInfo{}, fmt.Errorf("info: %w", ErrNameRequired)
	}

	var info depot.FileInfo
	if err := c.getJSON(ctx, "/info/"+url.PathEscape(name), &info); err != nil {
		return depot.FileInfo{}, fmt.Errorf("info: %w", err)
	}
	return info, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	var status map[string]string
	if err := c.getJSON(ctx, "/healthz", &status); err != nil {
		return fmt.Errorf("health: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// detectContentType sniffs the content of f and rewinds it.
func detectContentType(f *os.File) (string, error) {
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind file: %w", err)
	}
	return mtype.String(), nil
}

// attachmentName returns the file name from a Content-Disposition header,
// reduced to its base name, or fallback.
func attachmentName(header, fallback string) string {
	name := fallback
	if _, params, err := mime.ParseMediaType(header); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return filepath.Base(fallback)
	}
	return name
}

// parseServerError extracts error message from server response.
func parseServerError(statusCode int, body []byte) error {
	return &APIError{
		StatusCode: statusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Body
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned for an unknown warehouse or file (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrRejected is returned when the warehouse policy refuses an upload (400).
	ErrRejected = &APIError{StatusCode: http.StatusBadRequest}

	// ErrConflict is returned when the warehouse already holds a file with
	// the same name (409).
	ErrConflict = &APIError{StatusCode: http.StatusConflict}
)
