// Package postgres implements the upload journal using PostgreSQL
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sagarc03/depot"
)

type journal struct {
	pool      *pgxpool.Pool
	tableName string
}

func (j *journal) Record(ctx context.Context, e depot.Event) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, warehouse, file_name, size_bytes, content_type, outcome, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, pgx.Identifier{j.tableName}.Sanitize())

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := j.pool.Exec(ctx, query,
		e.ID, e.Warehouse, e.FileName, e.Size, e.ContentType, string(e.Outcome), e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return nil
}

func (j *journal) List(ctx context.Context, q depot.EventQuery) ([]depot.Event, error) {
	table := pgx.Identifier{j.tableName}.Sanitize()

	var query string
	var args []any

	if q.Warehouse == "" {
		query = fmt.Sprintf(`
			SELECT id, warehouse, file_name, size_bytes, content_type, outcome, created_at
			FROM %s
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`, table)
		args = []any{q.Limit}
	} else {
		query = fmt.Sprintf(`
			SELECT id, warehouse, file_name, size_bytes, content_type, outcome, created_at
			FROM %s
			WHERE warehouse = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`, table)
		args = []any{q.Warehouse, q.Limit}
	}

	rows, err := j.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	events := []depot.Event{}
	for rows.Next() {
		var e depot.Event
		var outcome string

		if scanErr := rows.Scan(&e.ID, &e.Warehouse, &e.FileName, &e.Size, &e.ContentType, &outcome, &e.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("list: scan: %w", scanErr)
		}

		e.Outcome = depot.Outcome(outcome)
		e.CreatedAt = e.CreatedAt.UTC()
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return events, nil
}
