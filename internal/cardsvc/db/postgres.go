package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Schema is idempotent so every binary can run it on startup. The CHECK
// constraint ties first_used_at to is_used.
const Schema = `
CREATE TABLE IF NOT EXISTS card_keys (
	id            BIGSERIAL PRIMARY KEY,
	key_code      TEXT UNIQUE NOT NULL,
	first_used_at TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	is_used       SMALLINT NOT NULL DEFAULT 0 CHECK (is_used IN (0, 1)),
	CONSTRAINT card_keys_used_consistent CHECK ((is_used = 1) = (first_used_at IS NOT NULL))
)`

type DB struct {
	Pool *pgxpool.Pool
	SQL  *sql.DB
}

// Connect opens the pgx pool and a database/sql handle sharing it.
func Connect(ctx context.Context, dsn string) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Try pinging to make sure it's valid
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool, SQL: stdlib.OpenDBFromPool(pool)}, nil
}

// Migrate creates the card_keys table when it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create card_keys table: %w", err)
	}
	return nil
}

// Close is for graceful shutdown
func (d *DB) Close() {
	if d == nil {
		return
	}
	if d.SQL != nil {
		d.SQL.Close()
	}
	if d.Pool != nil {
		d.Pool.Close()
	}
}
