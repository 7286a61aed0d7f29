package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new PostgreSQL connection pool
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// schema provisions the pokemon table and its full-text index. The GIN index
// over to_tsvector('english', info) is what SearchByText queries against.
const schema = `
CREATE TABLE IF NOT EXISTS pokemon (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    height      INTEGER NOT NULL DEFAULT 0,
    weight      INTEGER NOT NULL DEFAULT 0,
    hp          INTEGER NOT NULL DEFAULT 0,
    attack      INTEGER NOT NULL DEFAULT 0,
    defense     INTEGER NOT NULL DEFAULT 0,
    s_attack    INTEGER NOT NULL DEFAULT 0,
    s_defense   INTEGER NOT NULL DEFAULT 0,
    speed       INTEGER NOT NULL DEFAULT 0,
    type        TEXT NOT NULL DEFAULT '',
    evo_set     INTEGER NOT NULL DEFAULT 0,
    info        TEXT NOT NULL DEFAULT '',
    embedded_at TIMESTAMPTZ,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS pokemon_info_fts_idx
    ON pokemon USING GIN (to_tsvector('english', info));
`

// EnsureSchema creates the pokemon table and indexes if they do not exist.
// Called by the loader; the serving path assumes the schema is in place.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to provision schema: %w", err)
	}
	return nil
}
