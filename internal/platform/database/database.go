// Package database provides PostgreSQL connection management via pgx.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// ParseURL validates a PostgreSQL connection URL.
func ParseURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	return cfg, nil
}

// New creates a new database connection pool.
func New(ctx context.Context, url string, maxConns, minConns int) (*DB, error) {
	cfg, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	cfg.MaxConns = int32(maxConns)
	cfg.MinConns = int32(minConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// schema holds the DDL for all tables the service owns. Statements are
// idempotent so startup can run them unconditionally.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS questions (
		id           text PRIMARY KEY,
		subject_key  text NOT NULL,
		paper_code   text NOT NULL,
		number       int  NOT NULL,
		year         int  NOT NULL,
		season       text NOT NULL,
		paper_type   int  NOT NULL,
		variant      int  NOT NULL,
		topics       text[] NOT NULL DEFAULT '{}',
		image_urls   text[] NOT NULL DEFAULT '{}',
		answers      jsonb  NOT NULL DEFAULT '[]',
		created_at   timestamptz NOT NULL DEFAULT now(),
		updated_at   timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS questions_subject_idx ON questions (subject_key)`,
	`CREATE TABLE IF NOT EXISTS subject_values (
		subject_key text NOT NULL,
		dimension   text NOT NULL,
		value       text NOT NULL,
		created_at  timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (subject_key, dimension, value)
	)`,
	`CREATE TABLE IF NOT EXISTS bookmark_lists (
		public_id  text PRIMARY KEY,
		owner_id   text NOT NULL,
		name       text NOT NULL,
		is_public  boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bookmark_items (
		list_id     text NOT NULL REFERENCES bookmark_lists(public_id) ON DELETE CASCADE,
		question_id text NOT NULL,
		added_at    timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (list_id, question_id)
	)`,
	`CREATE TABLE IF NOT EXISTS finished_questions (
		user_id     text NOT NULL,
		question_id text NOT NULL,
		marked_at   timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, question_id)
	)`,
	`CREATE TABLE IF NOT EXISTS saved_filters (
		user_id     text NOT NULL,
		scope_key   text NOT NULL,
		filter_json jsonb NOT NULL,
		updated_at  timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, scope_key)
	)`,
}

// EnsureSchema creates the service's tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
