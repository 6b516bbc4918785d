package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func createEventsTable(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	indexRecent := pgx.Identifier{fmt.Sprintf("idx_%s_recent", tableName)}.Sanitize()
	indexWarehouse := pgx.Identifier{fmt.Sprintf("idx_%s_warehouse", tableName)}.Sanitize()

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			warehouse TEXT NOT NULL,
			file_name TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			content_type TEXT NOT NULL,
			outcome TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (created_at DESC, id DESC);

		CREATE INDEX IF NOT EXISTS %s
		ON %s (warehouse, created_at DESC, id DESC);
	`,
		quotedTable,
		indexRecent, quotedTable,
		indexWarehouse, quotedTable,
	)

	_, err := pool.Exec(ctx, sql)
	if err != nil {
		return fmt.Errorf("create events table: %w", err)
	}
	return nil
}

// DropTables removes every table created by the migrations.
func DropTables(ctx context.Context, pool *pgxpool.Pool, tableName string) error {
	sql := fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tableName}.Sanitize())
	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("drop table %s: %w", tableName, err)
	}
	return nil
}
