package depot_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sagarc03/depot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type SpyFileStorage struct {
	mock.Mock
}

func (s *SpyFileStorage) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	args := s.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(int64), args.Error(2)
}

func (s *SpyFileStorage) Write(ctx context.Context, key string, content io.Reader) (depot.SaveResult, error) {
	args := s.Called(ctx, key, content)
	return args.Get(0).(depot.SaveResult), args.Error(1)
}

func (s *SpyFileStorage) Delete(ctx context.Context, key string) error {
	args := s.Called(ctx, key)
	return args.Error(0)
}

func (s *SpyFileStorage) List(ctx context.Context) ([]depot.ObjectEntry, error) {
	args := s.Called(ctx)
	return args.Get(0).([]depot.ObjectEntry), args.Error(1)
}

type SpyJournal struct {
	mock.Mock
}

func (s *SpyJournal) Record(ctx context.Context, e depot.Event) error {
	args := s.Called(ctx, e)
	return args.Error(0)
}

func (s *SpyJournal) List(ctx context.Context, q depot.EventQuery) ([]depot.Event, error) {
	args := s.Called(ctx, q)
	return args.Get(0).([]depot.Event), args.Error(1)
}

// memStorage is an in-memory FileStorage used where real byte flow matters.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, 0, depot.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *memStorage) Write(_ context.Context, key string, content io.Reader) (depot.SaveResult, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return depot.SaveResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return depot.SaveResult{BytesWritten: int64(len(data))}, nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return depot.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *memStorage) List(_ context.Context) ([]depot.ObjectEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := []depot.ObjectEntry{}
	for k, v := range m.objects {
		entries = append(entries, depot.ObjectEntry{Key: k, Size: int64(len(v))})
	}
	return entries, nil
}

func (m *memStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func NewDepotService(t *testing.T) (*depot.DepotService, *SpyFileStorage, *SpyJournal) {
	t.Helper()
	spyStorage := new(SpyFileStorage)
	spyJournal := new(SpyJournal)
	s, err := depot.NewDepotService(newTestRegistry(t), spyStorage, spyJournal, depot.ServiceConfig{})
	require.NoError(t, err, "new depot service")
	return s, spyStorage, spyJournal
}

func newMemService(t *testing.T, cfg depot.ServiceConfig) (*depot.DepotService, *memStorage) {
	t.Helper()
	storage := newMemStorage()
	s, err := depot.NewDepotService(newTestRegistry(t), storage, nil, cfg)
	require.NoError(t, err, "new depot service")
	return s, storage
}

var audioKey = mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "audio/") })

func TestNewDepotService(t *testing.T) {
	_, err := depot.NewDepotService(nil, newMemStorage(), nil, depot.ServiceConfig{})
	assert.Error(t, err)

	_, err = depot.NewDepotService(newTestRegistry(t), nil, nil, depot.ServiceConfig{})
	assert.Error(t, err)
}

func TestDepotService_Upload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service, storage, journal := NewDepotService(t)
		ctx := context.Background()

		storage.On("Write", ctx, audioKey, mock.Anything).Return(depot.SaveResult{BytesWritten: 1024}, nil)
		journal.On("Record", mock.Anything, mock.MatchedBy(func(e depot.Event) bool {
			return e.Outcome == depot.OutcomeAdmitted && e.Warehouse == "audio" && e.FileName == "track.mp3" && e.Size == 1024
		})).Return(nil)

		f, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "track.mp3", ContentType: "audio/mpeg"}, strings.NewReader("ignored"))
		require.NoError(t, err)
		assert.Equal(t, "track.mp3", f.Name)
		assert.Equal(t, int64(1024), f.Size)
		assert.True(t, strings.HasPrefix(f.Location, "audio/"))

		storage.AssertExpectations(t)
		storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		journal.AssertExpectations(t)
	})

	t.Run("unknown warehouse", func(t *testing.T) {
		service, storage, journal := NewDepotService(t)

		_, err := service.Upload(context.Background(), "pictures", depot.UploadObject{Name: "a.png", ContentType: "image/png"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, depot.ErrUnknownWarehouse)

		storage.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
		journal.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("invalid file name", func(t *testing.T) {
		service, storage, _ := NewDepotService(t)

		_, err := service.Upload(context.Background(), "audio", depot.UploadObject{Name: "../etc/passwd", ContentType: "audio/mpeg"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, depot.ErrInvalidInput)

		storage.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("context canceled", func(t *testing.T) {
		service, storage, _ := NewDepotService(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "a.mp3", ContentType: "audio/mpeg"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, context.Canceled)

		storage.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejection deletes written bytes", func(t *testing.T) {
		service, storage, journal := NewDepotService(t)
		ctx := context.Background()

		var writtenKey string
		storage.On("Write", ctx, audioKey, mock.Anything).
			Run(func(args mock.Arguments) { writtenKey = args.String(1) }).
			Return(depot.SaveResult{BytesWritten: 10}, nil)
		storage.On("Delete", mock.Anything, audioKey).Return(nil)
		journal.On("Record", mock.Anything, mock.MatchedBy(func(e depot.Event) bool {
			return e.Outcome == depot.OutcomeTypeNotAllowed
		})).Return(nil)

		_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "notes.txt", ContentType: "text/plain"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, depot.ErrTypeNotAllowed)

		storage.AssertCalled(t, "Delete", mock.Anything, writtenKey)
		journal.AssertExpectations(t)
	})

	t.Run("write error is an upload decode failure and cleans up", func(t *testing.T) {
		service, storage, journal := NewDepotService(t)
		ctx := context.Background()

		storage.On("Write", ctx, audioKey, mock.Anything).Return(depot.SaveResult{}, io.ErrUnexpectedEOF)
		storage.On("Delete", mock.Anything, audioKey).Return(depot.ErrNotFound)

		_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "a.mp3", ContentType: "audio/mpeg"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, depot.ErrUploadDecode)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

		storage.AssertExpectations(t)
		journal.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})

	t.Run("cleanup failure is reported", func(t *testing.T) {
		service, storage, journal := NewDepotService(t)
		ctx := context.Background()

		storage.On("Write", ctx, audioKey, mock.Anything).Return(depot.SaveResult{BytesWritten: 6 * depot.MiB}, nil)
		storage.On("Delete", mock.Anything, audioKey).Return(io.ErrClosedPipe)
		journal.On("Record", mock.Anything, mock.Anything).Return(nil)

		_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "a.mp3", ContentType: "audio/mpeg"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, depot.ErrFileTooLarge)
		assert.ErrorIs(t, err, io.ErrClosedPipe)
	})

	t.Run("journal failure does not fail upload", func(t *testing.T) {
		service, storage, journal := NewDepotService(t)
		ctx := context.Background()

		storage.On("Write", ctx, audioKey, mock.Anything).Return(depot.SaveResult{BytesWritten: 1}, nil)
		journal.On("Record", mock.Anything, mock.Anything).Return(errors.New("database is locked"))

		_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "a.mp3", ContentType: "audio/mpeg"}, strings.NewReader("x"))
		assert.NoError(t, err)
	})
}

func TestDepotService_Upload_Storage(t *testing.T) {
	t.Run("too large leaves no residual bytes", func(t *testing.T) {
		service, storage := newMemService(t, depot.ServiceConfig{})
		ctx := context.Background()

		body := bytes.Repeat([]byte("a"), int(5*depot.MiB)+100)
		_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "big.mp3", ContentType: "audio/mpeg"}, bytes.NewReader(body))
		assert.ErrorIs(t, err, depot.ErrFileTooLarge)

		assert.Equal(t, 0, storage.Len())
		assert.Equal(t, 0, service.Registry().Summarize(false)[4].FileCount)
	})

	t.Run("reads at most max size plus one byte", func(t *testing.T) {
		service, _ := newMemService(t, depot.ServiceConfig{})
		ctx := context.Background()

		body := bytes.NewReader(bytes.Repeat([]byte("a"), int(5*depot.MiB)+100))
		_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "big.mp3", ContentType: "audio/mpeg"}, body)
		assert.ErrorIs(t, err, depot.ErrFileTooLarge)
		assert.Equal(t, 99, body.Len())
	})

	t.Run("type rejection leaves no residual bytes", func(t *testing.T) {
		service, storage := newMemService(t, depot.ServiceConfig{})

		_, err := service.Upload(context.Background(), "books", depot.UploadObject{Name: "song.mp3", ContentType: "audio/mpeg"}, strings.NewReader("la la"))
		assert.ErrorIs(t, err, depot.ErrTypeNotAllowed)
		assert.Equal(t, 0, storage.Len())
	})

	t.Run("capacity rejection leaves stored files intact", func(t *testing.T) {
		service, storage := newMemService(t, depot.ServiceConfig{})
		ctx := context.Background()

		for _, name := range []string{"1.mp3", "2.mp3", "3.mp3", "4.mp3", "5.mp3"} {
			_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: name, ContentType: "audio/mpeg"}, strings.NewReader(name))
			require.NoError(t, err)
		}

		_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "6.mp3", ContentType: "audio/mpeg"}, strings.NewReader("6"))
		assert.ErrorIs(t, err, depot.ErrCapacityExceeded)
		assert.Equal(t, 5, storage.Len())
	})

	t.Run("full warehouse reports capacity before invalid name", func(t *testing.T) {
		service, storage := newMemService(t, depot.ServiceConfig{})
		ctx := context.Background()

		for _, name := range []string{"1.mp3", "2.mp3", "3.mp3", "4.mp3", "5.mp3"} {
			_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: name, ContentType: "audio/mpeg"}, strings.NewReader(name))
			require.NoError(t, err)
		}

		for _, name := range []string{"..", "a/b.mp3", ""} {
			_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: name, ContentType: "audio/mpeg"}, strings.NewReader("x"))
			assert.ErrorIs(t, err, depot.ErrCapacityExceeded, "name %q", name)
			assert.NotErrorIs(t, err, depot.ErrInvalidInput, "name %q", name)
		}
		assert.Equal(t, 5, storage.Len())

		_, err := service.Upload(ctx, "books", depot.UploadObject{Name: "..", ContentType: "text/plain"}, strings.NewReader("x"))
		assert.ErrorIs(t, err, depot.ErrInvalidInput, "invalid name still rejected when there is room")
	})

	t.Run("declared content type is kept with its parameters", func(t *testing.T) {
		service, _ := newMemService(t, depot.ServiceConfig{})
		ctx := context.Background()

		f, err := service.Upload(ctx, "books", depot.UploadObject{Name: "a.txt", ContentType: "text/plain; charset=utf-8"}, strings.NewReader("x"))
		require.NoError(t, err)
		assert.Equal(t, "text/plain; charset=utf-8", f.ContentType)

		dl, err := service.Download(ctx, "books", "a.txt")
		require.NoError(t, err)
		defer func() { _ = dl.Content.Close() }()
		assert.Equal(t, "text/plain; charset=utf-8", dl.File.ContentType)

		info, err := service.Info(ctx, "a.txt")
		require.NoError(t, err)
		assert.Equal(t, "text/plain; charset=utf-8", info.Type)
	})

	t.Run("duplicate name keeps original bytes", func(t *testing.T) {
		service, _ := newMemService(t, depot.ServiceConfig{})
		ctx := context.Background()

		_, err := service.Upload(ctx, "books", depot.UploadObject{Name: "a.txt", ContentType: "text/plain"}, strings.NewReader("first"))
		require.NoError(t, err)
		_, err = service.Upload(ctx, "books", depot.UploadObject{Name: "a.txt", ContentType: "text/plain"}, strings.NewReader("second"))
		assert.ErrorIs(t, err, depot.ErrDuplicateName)

		dl, err := service.Download(ctx, "books", "a.txt")
		require.NoError(t, err)
		defer func() { _ = dl.Content.Close() }()
		data, err := io.ReadAll(dl.Content)
		require.NoError(t, err)
		assert.Equal(t, "first", string(data))
	})
}

func TestDepotService_Download(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		service, _ := newMemService(t, depot.ServiceConfig{})
		ctx := context.Background()

		content := bytes.Repeat([]byte{0x1, 0x2, 0x3}, 1000)
		_, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "track.mp3", ContentType: "audio/mpeg"}, bytes.NewReader(content))
		require.NoError(t, err)

		dl, err := service.Download(ctx, "audio", "track.mp3")
		require.NoError(t, err)
		defer func() { _ = dl.Content.Close() }()

		assert.Equal(t, int64(len(content)), dl.Size)
		assert.Equal(t, "audio/mpeg", dl.File.ContentType)
		data, err := io.ReadAll(dl.Content)
		require.NoError(t, err)
		assert.Equal(t, content, data)
	})

	t.Run("unknown warehouse", func(t *testing.T) {
		service, _, _ := NewDepotService(t)

		_, err := service.Download(context.Background(), "pictures", "a.png")
		assert.ErrorIs(t, err, depot.ErrUnknownWarehouse)
	})

	t.Run("file not in warehouse", func(t *testing.T) {
		service, storage, _ := NewDepotService(t)

		_, err := service.Download(context.Background(), "audio", "missing.mp3")
		assert.ErrorIs(t, err, depot.ErrNotFound)
		storage.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
	})

	t.Run("file in another warehouse is not found", func(t *testing.T) {
		service, _ := newMemService(t, depot.ServiceConfig{})
		ctx := context.Background()

		_, err := service.Upload(ctx, "books", depot.UploadObject{Name: "a.txt", ContentType: "text/plain"}, strings.NewReader("x"))
		require.NoError(t, err)

		_, err = service.Download(ctx, "docs", "a.txt")
		assert.ErrorIs(t, err, depot.ErrNotFound)
	})

	t.Run("backing bytes removed out of band", func(t *testing.T) {
		service, storage := newMemService(t, depot.ServiceConfig{})
		ctx := context.Background()

		f, err := service.Upload(ctx, "books", depot.UploadObject{Name: "a.txt", ContentType: "text/plain"}, strings.NewReader("x"))
		require.NoError(t, err)
		require.NoError(t, storage.Delete(ctx, f.Location))

		_, err = service.Download(ctx, "books", "a.txt")
		assert.ErrorIs(t, err, depot.ErrReadFailure)
	})
}

func TestDepotService_Info(t *testing.T) {
	service, _ := newMemService(t, depot.ServiceConfig{})
	ctx := context.Background()

	_, err := service.Info(ctx, "track.mp3")
	assert.ErrorIs(t, err, depot.ErrNotFound)

	_, err = service.Upload(ctx, "audio", depot.UploadObject{Name: "track.mp3", ContentType: "audio/mpeg"}, strings.NewReader("abc"))
	require.NoError(t, err)

	info, err := service.Info(ctx, "track.mp3")
	require.NoError(t, err)
	assert.Equal(t, depot.FileInfo{Name: "track.mp3", Size: 3, Warehouse: "audio", Type: "audio/mpeg"}, info)
}

func TestDepotService_Summarize(t *testing.T) {
	t.Run("fresh service", func(t *testing.T) {
		service, _ := newMemService(t, depot.ServiceConfig{})

		summary, err := service.Summarize(context.Background())
		require.NoError(t, err)
		require.Len(t, summary, 6)
		for _, ws := range summary {
			assert.Equal(t, 0, ws.FileCount)
			assert.Equal(t, int64(0), ws.UsedStorage)
			assert.Empty(t, ws.FileNames)
		}
	})

	t.Run("legacy file names", func(t *testing.T) {
		service, _ := newMemService(t, depot.ServiceConfig{LegacyFileNames: true})

		summary, err := service.Summarize(context.Background())
		require.NoError(t, err)
		for _, ws := range summary {
			assert.Equal(t, []string{""}, ws.FileNames)
		}
	})
}

func TestDepotService_Purge(t *testing.T) {
	t.Run("deletes every object", func(t *testing.T) {
		service, storage, _ := NewDepotService(t)
		ctx := context.Background()

		entries := []depot.ObjectEntry{{Key: "uploads/old.mp3", Size: 10}, {Key: "leftover", Size: 1}}
		storage.On("List", ctx).Return(entries, nil)
		storage.On("Delete", ctx, "uploads/old.mp3").Return(nil)
		storage.On("Delete", ctx, "leftover").Return(depot.ErrNotFound)

		removed, err := service.Purge(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, removed)
		storage.AssertExpectations(t)
	})

	t.Run("empty storage", func(t *testing.T) {
		service, storage, _ := NewDepotService(t)
		ctx := context.Background()

		storage.On("List", ctx).Return([]depot.ObjectEntry{}, nil)

		removed, err := service.Purge(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, removed)
		storage.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("list error", func(t *testing.T) {
		service, storage, _ := NewDepotService(t)
		ctx := context.Background()

		storage.On("List", ctx).Return([]depot.ObjectEntry{}, io.ErrUnexpectedEOF)

		_, err := service.Purge(ctx)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("delete error stops purge", func(t *testing.T) {
		service, storage, _ := NewDepotService(t)
		ctx := context.Background()

		storage.On("List", ctx).Return([]depot.ObjectEntry{{Key: "a"}, {Key: "b"}}, nil)
		storage.On("Delete", ctx, "a").Return(io.ErrClosedPipe)

		removed, err := service.Purge(ctx)
		assert.ErrorIs(t, err, io.ErrClosedPipe)
		assert.Equal(t, 0, removed)
		storage.AssertNotCalled(t, "Delete", ctx, "b")
	})
}

func TestDepotService_History(t *testing.T) {
	t.Run("journal disabled", func(t *testing.T) {
		service, _ := newMemService(t, depot.ServiceConfig{})

		_, err := service.History(context.Background(), depot.EventQuery{})
		assert.ErrorIs(t, err, depot.ErrInvalidInput)
	})

	t.Run("default limit", func(t *testing.T) {
		service, _, journal := NewDepotService(t)
		ctx := context.Background()

		events := []depot.Event{{FileName: "a.mp3", Outcome: depot.OutcomeAdmitted}}
		journal.On("List", ctx, depot.EventQuery{Warehouse: "audio", Limit: 100}).Return(events, nil)

		got, err := service.History(ctx, depot.EventQuery{Warehouse: "audio"})
		require.NoError(t, err)
		assert.Equal(t, events, got)
		journal.AssertExpectations(t)
	})
}
