package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/depot"
)

// DownloadBufferSize is the chunk size used to stream downloads.
const DownloadBufferSize = 1024 * 1024

// UploadField is the multipart form field carrying the uploaded file.
const UploadField = "file"

type Service interface {
	Policy(warehouse string) (depot.Policy, error)
	Upload(ctx context.Context, warehouse string, obj depot.UploadObject, content io.Reader) (depot.File, error)
	Download(ctx context.Context, warehouse, name string) (depot.Download, error)
	Info(ctx context.Context, name string) (depot.FileInfo, error)
	Summarize(ctx context.Context) (depot.Summary, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	// MaxUploadSize caps the whole request body of an upload. Zero disables
	// the cap. With a cap, the unread remainder of a rejected upload is
	// drained so the client receives the response.
	MaxUploadSize int64
	CORS          CORSConfig
}

// Handler provides HTTP handlers for the depot gateway.
type Handler struct {
	config  HandlerConfig
	service Service
	buffers sync.Pool
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
		buffers: sync.Pool{New: func() any {
			b := make([]byte, DownloadBufferSize)
			return &b
		}},
	}
}

// Router returns an http.Handler with every gateway route mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(routeNotFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Post("/upload/{store}", h.handleUpload)
	r.Get("/download/{store}/{filename}", h.handleDownload)
	r.Get("/storages", h.handleStorages)
	r.Get("/info/{fileName}", h.handleInfo)
	r.Get("/healthz", h.handleHealth)

	return r
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	warehouse := pathParam(r, "store")

	// Unknown stores are reported before the body is looked at.
	if _, err := h.service.Policy(warehouse); err != nil {
		HandleError(w, err)
		return
	}

	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
		defer drain(r.Body)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		HandleError(w, fmt.Errorf("upload: %w: %w", depot.ErrUploadDecode, err))
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		HandleError(w, fmt.Errorf("upload: %w", err))
		return
	}
	defer func() { _ = part.Close() }()

	obj := depot.UploadObject{
		Name:        part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
	}

	f, err := h.service.Upload(r.Context(), warehouse, obj, part)
	if err != nil {
		HandleError(w, err)
		return
	}

	slog.Info("file uploaded", "warehouse", warehouse, "name", f.Name, "size", f.Size, "content_type", f.ContentType)
	WriteText(w, http.StatusOK, MsgUploaded)
}

// nextFilePart skips parts until the upload field. Any multipart error is
// an upload decode failure.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingFile
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", depot.ErrUploadDecode, err)
		}
		if part.FormName() == UploadField {
			return part, nil
		}
		_ = part.Close()
	}
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	warehouse := pathParam(r, "store")
	name := pathParam(r, "filename")

	dl, err := h.service.Download(r.Context(), warehouse, name)
	if err != nil {
		HandleError(w, err)
		return
	}
	defer func() { _ = dl.Content.Close() }()

	w.Header().Set("Content-Disposition", contentDisposition(dl.File.Name))
	w.Header().Set("Content-Type", dl.File.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.WriteHeader(http.StatusOK)

	bufp := h.buffers.Get().(*[]byte)
	defer h.buffers.Put(bufp)

	// writerOnly hides ReadFrom so the fixed-size buffer is actually used.
	_, err = io.CopyBuffer(writerOnly{w}, &ctxReader{ctx: r.Context(), r: dl.Content}, *bufp)
	if err != nil {
		slog.Warn("download interrupted", "warehouse", warehouse, "name", name, "err", err)
		// Headers are gone; abort so the client sees a truncated transfer.
		panic(http.ErrAbortHandler)
	}
}

func (h *Handler) handleStorages(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summarize(r.Context())
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "fileName")

	info, err := h.service.Info(r.Context(), name)
	if err != nil {
		if errors.Is(err, depot.ErrNotFound) {
			WriteText(w, http.StatusNotFound, MsgInfoNotFound)
		} else {
			HandleError(w, err)
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathParam returns the decoded route parameter. chi matches on RawPath
// when the URL carries escapes that differ from the default encoding.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// contentDisposition quotes plain ASCII names and falls back to the RFC 2231
// encoding of mime.FormatMediaType for everything else.
func contentDisposition(name string) string {
	if isPlainASCII(name) {
		return `attachment; filename="` + name + `"`
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e || c == '"' || c == '\\' {
			return false
		}
	}
	return true
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

type writerOnly struct {
	io.Writer
}
