package depot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// FileStorage defines the interface for the backing byte store.
// Implementations can use the local filesystem, an S3-compatible bucket, or
// any other backend. Keys are opaque to callers and produced by DepotService.
//
// All methods accept a context for cancellation and timeout control.
// Implementations should respect context cancellation during long-running
// operations like large uploads or downloads.
type FileStorage interface {
	// Open retrieves an object for reading together with its current size.
	//
	// Returns:
	//   - io.ReadCloser: Reader for object content; the caller must close it
	//   - int64: Live size of the object in bytes
	//   - error: ErrNotFound if the object doesn't exist, or other storage errors
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Write stores content under key, overwriting any existing object.
	//
	// Implementations should:
	//   - Write atomically when possible (e.g., write to temp file then rename)
	//   - Return the accurate byte count of data written
	//   - Handle context cancellation gracefully and clean up partial writes
	Write(ctx context.Context, key string, content io.Reader) (SaveResult, error)

	// Delete removes an object.
	//
	// Returns:
	//   - error: ErrNotFound if the object doesn't exist, or other storage errors
	Delete(ctx context.Context, key string) error

	// List returns every object currently present in the storage, including
	// leftovers from previous runs. It is used to purge storage at startup.
	List(ctx context.Context) ([]ObjectEntry, error)
}

// Journal records admission decisions. It is history only and is never used
// to rebuild the registry.
type Journal interface {
	// Record appends an event.
	Record(ctx context.Context, e Event) error

	// List returns the most recent events first, filtered by q.
	List(ctx context.Context, q EventQuery) ([]Event, error)
}

type DepotService struct {
	registry        *Registry
	storage         FileStorage
	journal         Journal
	cleanupTimeout  time.Duration
	legacyFileNames bool
}

// ServiceConfig holds configuration options for DepotService.
type ServiceConfig struct {
	CleanupTimeout time.Duration // Timeout for cleanup operations (default: 30s)
	// LegacyFileNames makes empty warehouses report a single "" file name.
	LegacyFileNames bool
}

// NewDepotService wires a registry to a storage backend. journal may be nil.
func NewDepotService(registry *Registry, storage FileStorage, journal Journal, cfg ServiceConfig) (*DepotService, error) {
	if registry == nil {
		return nil, errors.New("new depot service: registry is required")
	}
	if storage == nil {
		return nil, errors.New("new depot service: storage is required")
	}
	cleanupTimeout := cfg.CleanupTimeout
	if cleanupTimeout <= 0 {
		cleanupTimeout = 30 * time.Second
	}
	return &DepotService{
		registry:        registry,
		storage:         storage,
		journal:         journal,
		cleanupTimeout:  cleanupTimeout,
		legacyFileNames: cfg.LegacyFileNames,
	}, nil
}

// Registry returns the warehouse registry the service operates on.
func (s *DepotService) Registry() *Registry {
	return s.registry
}

// Policy returns the policy of the named warehouse, or ErrUnknownWarehouse.
func (s *DepotService) Policy(warehouse string) (Policy, error) {
	w, err := s.registry.Lookup(warehouse)
	if err != nil {
		return Policy{}, err
	}
	return w.Policy(), nil
}

// Purge deletes every object from the backing storage and returns how many
// were removed. It is run once at startup, before any request is accepted,
// so that leftovers of a previous run never shadow the empty registry.
func (s *DepotService) Purge(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}

	entries, err := s.storage.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, fmt.Errorf("purge: %w", err)
		}
		delErr := s.storage.Delete(ctx, e.Key)
		// Ignore ErrNotFound - object may have been removed concurrently
		if delErr != nil && !errors.Is(delErr, ErrNotFound) {
			return removed, fmt.Errorf("purge '%s': %w", e.Key, delErr)
		}
		removed++
	}

	return removed, nil
}

// Upload receives content into the backing storage and runs admission on it.
//
// The method performs the following steps:
//  1. Resolves the warehouse (ErrUnknownWarehouse)
//  2. Validates the file name (ErrInvalidInput); a full warehouse reports
//     ErrCapacityExceeded instead, as capacity is always checked first
//  3. Writes at most MaxSize+1 bytes under a fresh opaque key; a body that long
//     is rejected anyway, so reading the rest would be wasted
//  4. Runs Warehouse.Admit and journals the decision
//  5. On any failure after step 3, deletes the written bytes
//
// Errors receiving content wrap ErrUploadDecode. Admission rejections wrap
// ErrCapacityExceeded, ErrFileTooLarge, ErrTypeNotAllowed or ErrDuplicateName.
// Cleanup uses a background context bounded by the cleanup timeout, so it
// completes even when ctx has been cancelled.
func (s *DepotService) Upload(ctx context.Context, warehouse string, obj UploadObject, content io.Reader) (File, error) {
	if err := ctx.Err(); err != nil {
		return File{}, fmt.Errorf("upload: %w", err)
	}

	w, err := s.registry.Lookup(warehouse)
	if err != nil {
		return File{}, fmt.Errorf("upload: %w", err)
	}

	if !IsValidFileName(obj.Name) {
		if w.Full() {
			err := fmt.Errorf("admit %s into %s: %w", obj.Name, w.Name(), ErrCapacityExceeded)
			s.record(ctx, w.Name(), Candidate{Name: obj.Name, ContentType: obj.ContentType}, err)
			return File{}, fmt.Errorf("upload: %w", err)
		}
		return File{}, fmt.Errorf("upload %q: %w: invalid file name", obj.Name, ErrInvalidInput)
	}

	key := w.Name() + "/" + uuid.NewString()
	limited := io.LimitReader(content, w.policy.MaxSize+1)

	saveResult, writeErr := s.storage.Write(ctx, key, limited)
	if writeErr != nil {
		err := fmt.Errorf("upload %s: %w: %w", obj.Name, ErrUploadDecode, writeErr)
		return File{}, s.discard(key, err)
	}

	candidate := Candidate{
		Name:        obj.Name,
		Size:        saveResult.BytesWritten,
		ContentType: obj.ContentType,
		Location:    key,
	}

	f, admitErr := w.Admit(candidate)
	s.record(ctx, w.Name(), candidate, admitErr)
	if admitErr != nil {
		return File{}, s.discard(key, fmt.Errorf("upload: %w", admitErr))
	}

	slog.Debug("file admitted", "warehouse", w.Name(), "name", f.Name, "size", f.Size, "key", key)
	return f, nil
}

// discard removes bytes written for a failed upload and joins any cleanup
// error to cause.
func (s *DepotService) discard(key string, cause error) error {
	cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
	defer cancel()

	if delErr := s.storage.Delete(cleanupCtx, key); delErr != nil && !errors.Is(delErr, ErrNotFound) {
		return fmt.Errorf("%w (cleanup of %s failed: %w)", cause, key, delErr)
	}
	return cause
}

func (s *DepotService) record(ctx context.Context, warehouse string, c Candidate, admitErr error) {
	if s.journal == nil {
		return
	}
	outcome, ok := OutcomeOf(admitErr)
	if !ok {
		return
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cleanupTimeout)
	defer cancel()

	e := Event{
		ID:          uuid.New(),
		Warehouse:   warehouse,
		FileName:    c.Name,
		Size:        c.Size,
		ContentType: c.ContentType,
		Outcome:     outcome,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.journal.Record(recordCtx, e); err != nil {
		slog.Warn("failed to journal admission", "warehouse", warehouse, "name", c.Name, "outcome", outcome, "err", err)
	}
}

// Download opens a stored file for streaming. The returned Size is the live
// size of the backing object. The caller must close Download.Content.
func (s *DepotService) Download(ctx context.Context, warehouse, name string) (Download, error) {
	if err := ctx.Err(); err != nil {
		return Download{}, fmt.Errorf("download: %w", err)
	}

	w, err := s.registry.Lookup(warehouse)
	if err != nil {
		return Download{}, fmt.Errorf("download: %w", err)
	}

	f, ok := w.Find(name)
	if !ok {
		return Download{}, fmt.Errorf("download %s/%s: %w", warehouse, name, ErrNotFound)
	}

	content, size, err := s.storage.Open(ctx, f.Location)
	if err != nil {
		return Download{}, fmt.Errorf("download %s/%s: %w: %w", warehouse, name, ErrReadFailure, err)
	}

	return Download{File: f, Size: size, Content: content}, nil
}

// Info performs a global lookup by file name.
func (s *DepotService) Info(ctx context.Context, name string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, fmt.Errorf("info: %w", err)
	}

	info, err := s.registry.Find(name)
	if err != nil {
		return FileInfo{}, fmt.Errorf("info: %w", err)
	}
	return info, nil
}

// Summarize reports the status of every warehouse.
func (s *DepotService) Summarize(ctx context.Context) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	return s.registry.Summarize(s.legacyFileNames), nil
}

// History lists journaled admission decisions, most recent first.
func (s *DepotService) History(ctx context.Context, q EventQuery) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	if s.journal == nil {
		return nil, fmt.Errorf("history: %w: journal is disabled", ErrInvalidInput)
	}
	if q.Limit <= 0 {
		q.Limit = 100
	}

	events, err := s.journal.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return events, nil
}
