// Package postgres stores each collection as one row of the collections
// table. The version column makes conditional writes a single UPDATE.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"carebook/internal/store"
	"carebook/pkg/platform/sentinel"
)

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	name       TEXT PRIMARY KEY,
	version    BIGINT NOT NULL,
	records    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type Backend struct {
	db *sql.DB
}

// New wraps an open database. Call Migrate once before use.
func New(db *sql.DB) *Backend {
	return &Backend{db: db}
}

// Open connects with the lib/pq driver and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func (b *Backend) Migrate(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate collections: %w", err)
	}
	return nil
}

func (b *Backend) Load(ctx context.Context, name string) (store.Document, error) {
	var (
		version int64
		records string
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT version, records FROM collections WHERE name = $1`, name,
	).Scan(&version, &records)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, nil
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("load %s: %w", name, err)
	}
	return store.Document{Version: version, Payload: []byte(records)}, nil
}

func (b *Backend) Swap(ctx context.Context, name string, expected int64, payload []byte) (int64, error) {
	var res sql.Result
	var err error
	if expected == 0 {
		res, err = b.db.ExecContext(ctx,
			`INSERT INTO collections (name, version, records) VALUES ($1, 1, $2)
			 ON CONFLICT (name) DO NOTHING`,
			name, string(payload))
	} else {
		res, err = b.db.ExecContext(ctx,
			`UPDATE collections SET version = version + 1, records = $3, updated_at = now()
			 WHERE name = $1 AND version = $2`,
			name, expected, string(payload))
	}
	if err != nil {
		return 0, fmt.Errorf("swap %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("swap %s: %w", name, err)
	}
	if n == 0 {
		return 0, sentinel.ErrConflict
	}
	return expected + 1, nil
}

func (b *Backend) Put(ctx context.Context, name string, payload []byte) (int64, error) {
	var version int64
	err := b.db.QueryRowContext(ctx,
		`INSERT INTO collections (name, version, records) VALUES ($1, 1, $2)
		 ON CONFLICT (name) DO UPDATE
		 SET version = collections.version + 1, records = EXCLUDED.records, updated_at = now()
		 RETURNING version`,
		name, string(payload),
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("put %s: %w", name, err)
	}
	return version, nil
}

// LoadMany fetches several collections with one query.
func (b *Backend) LoadMany(ctx context.Context, names []string) (map[string]store.Document, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT name, version, records FROM collections WHERE name = ANY($1)`,
		pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	defer rows.Close()

	out := make(map[string]store.Document, len(names))
	for _, name := range names {
		out[name] = store.Document{}
	}
	for rows.Next() {
		var (
			name    string
			version int64
			records string
		)
		if err := rows.Scan(&name, &version, &records); err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		out[name] = store.Document{Version: version, Payload: []byte(records)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	return out, nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}
