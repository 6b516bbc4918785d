// Package database connects the upload journal to a SQL backend.
//
// Two backends are supported. Both create their table on Migrate and check
// its columns on Validate:
//
//   - PostgreSQL: pgx connection pool
//   - SQLite: modernc.org/sqlite, the default for single-node deployments
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "depot.db",
//	    Tables: depot.Tables{Events: "depot_events"},
//	}
//
//	journal, cleanup, err := database.Open(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// A Type of "none" yields a nil journal and disables journaling.
package database
