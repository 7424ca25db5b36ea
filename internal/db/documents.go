package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Table holding one JSON document per key.
const documentsTable = "editor_documents"

const queryTimeout = 30 * time.Second

// DocumentInfo describes a stored document without its body.
type DocumentInfo struct {
	Key       string
	UpdatedAt time.Time
	Size      int
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, queryTimeout)
}

// EnsureSchema creates the documents table when missing.
func (d *DB) EnsureSchema(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	ddl := `CREATE TABLE IF NOT EXISTS ` + documentsTable + ` (
		key        TEXT PRIMARY KEY,
		body       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`
	return d.withConn(func(conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create %s: %w", documentsTable, err)
		}
		return nil
	})
}

// LoadDocument returns the raw JSON stored under key. found is false when
// there is no such row.
func (d *DB) LoadDocument(ctx context.Context, key string) (body []byte, found bool, err error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	err = d.withConn(func(conn *pgx.Conn) error {
		// scan as text so the codec sees the JSON and not a decoded map
		return conn.QueryRow(ctx, `SELECT body::text FROM `+documentsTable+` WHERE key = $1`, key).Scan(&body)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %q: %w", key, err)
	}
	return body, true, nil
}

// SaveDocument inserts or replaces the JSON stored under key.
func (d *DB) SaveDocument(ctx context.Context, key string, body []byte) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	const q = `INSERT INTO ` + documentsTable + ` (key, body, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`
	return d.withConn(func(conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, q, key, string(body)); err != nil {
			return fmt.Errorf("save %q: %w", key, err)
		}
		return nil
	})
}

// ListDocuments returns all stored documents ordered by key.
func (d *DB) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	var out []DocumentInfo
	err := d.withConn(func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `SELECT key, updated_at, length(body::text) FROM `+documentsTable+` ORDER BY key`)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (DocumentInfo, error) {
			var info DocumentInfo
			err := row.Scan(&info.Key, &info.UpdatedAt, &info.Size)
			return info, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

// DeleteDocument removes key. Deleting a missing key is not an error.
func (d *DB) DeleteDocument(ctx context.Context, key string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return d.withConn(func(conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, `DELETE FROM `+documentsTable+` WHERE key = $1`, key); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
		return nil
	})
}
