// Package depot provides a small file storage gateway that partitions uploads
// into named warehouses, each with its own file-count cap, size cap, and MIME
// type whitelist.
//
// Depot keeps its file index in memory. The backing storage is purged on
// startup, so every run starts with empty warehouses.
//
// # Key Components
//
//   - Registry: the fixed set of warehouses, built from []Policy at startup
//   - Warehouse: a policy plus an append-only file list; Admit runs admission control
//   - DepotService: upload, download, info, and status operations over a Registry
//   - FileStorage: interface for the backing byte store (filesystem, S3-compatible)
//   - Journal: optional interface recording every admission decision (SQLite, PostgreSQL)
//
// # Admission
//
// A fully received upload is admitted only if the warehouse has room, the file
// fits the size cap, its media type is whitelisted, and its name is not already
// taken in that warehouse, checked in that order. Rejected bytes are deleted
// from the backing storage before the error is returned.
//
// # Example Usage
//
//	registry, err := depot.NewRegistry(depot.DefaultPolicies())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	service, err := depot.NewDepotService(registry, storage, nil, depot.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Upload into the audio warehouse
//	file, err := service.Upload(ctx, "audio", depot.UploadObject{Name: "track.mp3", ContentType: "audio/mpeg"}, reader)
//
//	// Stream it back
//	dl, err := service.Download(ctx, "audio", "track.mp3")
//
// See the http package for the REST API and the filesystem and objectstore
// packages for storage backends.
package depot
