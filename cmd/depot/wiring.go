package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/depot"
	"github.com/sagarc03/depot/config"
	"github.com/sagarc03/depot/database"
	"github.com/sagarc03/depot/filesystem"
	"github.com/sagarc03/depot/objectstore"
)

// openStorage returns the backing byte store selected by cfg.
func openStorage(ctx context.Context, cfg config.StorageConfig) (depot.FileStorage, func(), error) {
	switch cfg.Type {
	case "minio":
		store, err := objectstore.New(ctx, cfg.MinIO)
		if err != nil {
			return nil, nil, fmt.Errorf("open minio storage: %w", err)
		}
		slog.Info("using minio storage", "endpoint", cfg.MinIO.Endpoint, "bucket", cfg.MinIO.Bucket)
		return store, func() {}, nil

	case "filesystem":
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, nil, fmt.Errorf("create storage directory: %w", err)
		}

		root, err := os.OpenRoot(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open storage root: %w", err)
		}
		slog.Info("using filesystem storage", "path", cfg.Path)
		return filesystem.NewFileStorage(root), func() { _ = root.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// openService builds the registry from the configured warehouses and wires
// it to storage and the journal. The returned cleanup closes both.
func openService(ctx context.Context, cfg *config.Config) (*depot.DepotService, func(), error) {
	registry, err := depot.NewRegistry(cfg.Warehouses)
	if err != nil {
		return nil, nil, fmt.Errorf("create registry: %w", err)
	}

	storage, closeStorage, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	journal, closeJournal, err := database.Open(ctx, cfg.Journal)
	if err != nil {
		closeStorage()
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	if journal != nil {
		slog.Info("journal enabled", "type", cfg.Journal.Type)
	}

	service, err := depot.NewDepotService(registry, storage, journal, depot.ServiceConfig{
		CleanupTimeout:  cfg.Service.CleanupTimeout,
		LegacyFileNames: cfg.Server.LegacyFileNames,
	})
	if err != nil {
		closeJournal()
		closeStorage()
		return nil, nil, fmt.Errorf("create service: %w", err)
	}

	cleanup := func() {
		closeJournal()
		closeStorage()
	}
	return service, cleanup, nil
}

// openJournal connects only the journal, for commands that read history.
func openJournal(ctx context.Context, cfg *config.Config) (depot.Journal, func(), error) {
	if cfg.Journal.Type == database.TypeNone {
		return nil, nil, errors.New("journal is disabled (journal.type is none)")
	}
	return database.Open(ctx, cfg.Journal)
}
