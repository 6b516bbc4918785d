// Package sqlite implements the upload journal using SQLite
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/depot"
)

// timeLayout is fixed-width so that stored timestamps sort lexically in
// chronological order. time.RFC3339Nano trims trailing zeros.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type journal struct {
	db        *sql.DB
	tableName string
}

func (j *journal) Record(ctx context.Context, e depot.Event) error {
	query := fmt.Sprintf( //nolint:gosec // G201: table name is validated
		`INSERT INTO %s (id, warehouse, file_name, size_bytes, content_type, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteIdentifier(j.tableName))

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx, query,
		e.ID.String(), e.Warehouse, e.FileName, e.Size, e.ContentType, string(e.Outcome),
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}
	return nil
}

func (j *journal) List(ctx context.Context, q depot.EventQuery) ([]depot.Event, error) {
	var query string
	var args []any

	if q.Warehouse == "" {
		query = fmt.Sprintf(`
			SELECT id, warehouse, file_name, size_bytes, content_type, outcome, created_at
			FROM %s
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, quoteIdentifier(j.tableName))
		args = []any{q.Limit}
	} else {
		query = fmt.Sprintf(`
			SELECT id, warehouse, file_name, size_bytes, content_type, outcome, created_at
			FROM %s
			WHERE warehouse = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, quoteIdentifier(j.tableName))
		args = []any{q.Warehouse, q.Limit}
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := []depot.Event{}
	for rows.Next() {
		var e depot.Event
		var idStr, outcome, createdAt string

		if scanErr := rows.Scan(&idStr, &e.Warehouse, &e.FileName, &e.Size, &e.ContentType, &outcome, &createdAt); scanErr != nil {
			return nil, fmt.Errorf("list: scan: %w", scanErr)
		}

		e.ID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("list: parse uuid: %w", err)
		}

		e.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("list: parse created_at: %w", err)
		}

		e.Outcome = depot.Outcome(outcome)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: rows: %w", err)
	}

	return events, nil
}
