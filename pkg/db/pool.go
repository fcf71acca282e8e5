// Package db persists the gateway call log in Postgres via pgx.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const logPrefix = "db:pool"

// NewPool creates a new pgx connection pool from the given database URL.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	slog.Info(fmt.Sprintf("%s - Connecting to database", logPrefix))

	config, err := poolConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to create pool: %w", logPrefix, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s - failed to ping database: %w", logPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - Database connection established", logPrefix))
	return pool, nil
}

// poolConfig parses databaseURL and sizes the pool for the call log.
func poolConfig(databaseURL string) (*pgxpool.Config, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%s - database URL is empty", logPrefix)
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to parse database URL: %w", logPrefix, err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnIdleTime = 5 * time.Minute
	return config, nil
}

// RunMigrations applies SQL migration files in order. Migrations are written
// to be re-runnable (IF NOT EXISTS).
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, migrationFiles []string) error {
	slog.Info(fmt.Sprintf("%s - Running %d migrations", logPrefix, len(migrationFiles)))

	for i, sql := range migrationFiles {
		if _, err := pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("%s - migration %d failed: %w", logPrefix, i+1, err)
		}
	}

	slog.Info(fmt.Sprintf("%s - Migrations complete", logPrefix))
	return nil
}

// MigrationStatus reports whether the call_log table exists.
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool, migrationPath string) (bool, error) {
	const statusLogPrefix = "db:MigrationStatus"

	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = 'call_log')`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s - failed to check schema: %w", statusLogPrefix, err)
	}

	files, err := LoadMigrationFiles(migrationPath)
	if err != nil {
		return exists, fmt.Errorf("%s - load migration list: %w", statusLogPrefix, err)
	}

	slog.Info(fmt.Sprintf("%s - call_log present=%t, %d migration files in %s", statusLogPrefix, exists, len(files), migrationPath))
	return exists, nil
}
