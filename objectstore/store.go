// Package objectstore provides an S3-compatible storage backend for depot
// built on minio-go. Any S3 endpoint works; MinIO is the tested one.
package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sagarc03/depot"
)

// DefaultPartSize is the multipart chunk used when the object size is not
// known up front. minio-go buffers one part per upload in memory.
const DefaultPartSize uint64 = 16 << 20

// MinPartSize is the smallest part S3 accepts.
const MinPartSize uint64 = 5 << 20

// Config holds connection settings for an S3-compatible endpoint.
type Config struct {
	Endpoint  string `mapstructure:"endpoint" validate:"required"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	Bucket    string `mapstructure:"bucket" validate:"required"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	// PartSize caps the per-upload buffer. Zero means DefaultPartSize.
	PartSize uint64 `mapstructure:"part_size" validate:"omitempty,min=5242880"`
}

// WithDefaults returns a copy of c with PartSize filled in.
func (c Config) WithDefaults() Config {
	if c.PartSize == 0 {
		c.PartSize = DefaultPartSize
	}
	return c
}

// Store keeps objects in a single bucket under their opaque keys.
type Store struct {
	client   *minio.Client
	bucket   string
	partSize uint64
}

// New creates a client and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg = cfg.WithDefaults()
	if cfg.PartSize < MinPartSize {
		return nil, fmt.Errorf("part size %d is below the %d byte minimum", cfg.PartSize, MinPartSize)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket %q: %w", cfg.Bucket, err)
		}
		slog.Info("created bucket", "bucket", cfg.Bucket)
	}

	return &Store{client: client, bucket: cfg.Bucket, partSize: cfg.PartSize}, nil
}

// Open fetches an object and reports its current size.
// Returns depot.ErrNotFound if the object does not exist.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("get object %q: %w", key, mapError(err))
	}

	// GetObject is lazy; Stat performs the request.
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, fmt.Errorf("get object %q: %w", key, mapError(err))
	}

	return obj, info.Size, nil
}

// Write streams content to the bucket. The size is unknown up front, so
// minio-go uploads it in parts of the configured size; without an explicit
// part size it would buffer parts sized for a 5 TiB object.
func (s *Store) Write(ctx context.Context, key string, content io.Reader) (depot.SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return depot.SaveResult{}, err
	}

	info, err := s.client.PutObject(ctx, s.bucket, key, content, -1, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
		PartSize:    s.partSize,
	})
	if err != nil {
		return depot.SaveResult{}, fmt.Errorf("put object %q: %w", key, err)
	}

	return depot.SaveResult{BytesWritten: info.Size}, nil
}

// Delete removes an object. S3 deletes are idempotent, so the object is
// stat'ed first to report depot.ErrNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, mapError(err))
	}

	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

// List returns every object in the bucket.
func (s *Store) List(ctx context.Context) ([]depot.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []depot.ObjectEntry{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		entries = append(entries, depot.ObjectEntry{Key: obj.Key, Size: obj.Size})
	}

	return entries, nil
}

func mapError(err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
		return depot.ErrNotFound
	}
	return err
}
