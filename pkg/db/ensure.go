package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ensureLogPrefix = "db:ensure"

// safeDBName matches allowed database names (alphanumeric and underscore only).
var safeDBName = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// EnsureDatabase creates the database named in databaseURL when it does not
// exist yet. It connects to the "postgres" maintenance database to do so.
func EnsureDatabase(ctx context.Context, databaseURL string) error {
	u, dbname, err := databaseName(databaseURL)
	if err != nil {
		return err
	}

	config, err := pgxpool.ParseConfig(maintenanceURL(u))
	if err != nil {
		return fmt.Errorf("%s - failed to parse postgres URL: %w", ensureLogPrefix, err)
	}
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to postgres: %w", ensureLogPrefix, err)
	}
	defer pool.Close()

	var exists bool
	err = pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, dbname).Scan(&exists)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s - failed to check database: %w", ensureLogPrefix, err)
	}
	if exists {
		return nil
	}

	slog.Info(fmt.Sprintf("%s - Creating database %q", ensureLogPrefix, dbname))
	if _, err := pool.Exec(ctx, "CREATE DATABASE "+quoteIdent(dbname)); err != nil {
		return fmt.Errorf("%s - CREATE DATABASE failed: %w", ensureLogPrefix, err)
	}
	return nil
}

func databaseName(databaseURL string) (*url.URL, string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return nil, "", fmt.Errorf("%s - invalid database URL: %w", ensureLogPrefix, err)
	}
	name := strings.TrimSpace(strings.TrimPrefix(u.Path, "/"))
	if name == "" {
		return nil, "", fmt.Errorf("%s - database name empty in URL", ensureLogPrefix)
	}
	if !safeDBName.MatchString(name) {
		return nil, "", fmt.Errorf("%s - database name %q contains invalid characters", ensureLogPrefix, name)
	}
	return u, name, nil
}

func maintenanceURL(u *url.URL) string {
	m := *u
	m.Path = "/postgres"
	return m.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
