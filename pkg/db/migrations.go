package db

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const migrationsLogPrefix = "db:migrations"

// LoadMigrationFiles returns the contents of the forward migrations in dir
// ordered by file name. Rollback scripts (*.down.sql) are skipped.
func LoadMigrationFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%s - migration dir %s: %w", migrationsLogPrefix, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s - migration path %s is not a directory", migrationsLogPrefix, dir)
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("%s - list %s: %w", migrationsLogPrefix, dir, err)
	}
	sort.Strings(paths)

	migrations := make([]string, 0, len(paths))
	for _, path := range paths {
		if strings.HasSuffix(path, ".down.sql") {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if fi, statErr := os.Stat(path); statErr == nil && fi.IsDir() {
				continue
			}
			return nil, fmt.Errorf("%s - read %s: %w", migrationsLogPrefix, path, err)
		}
		migrations = append(migrations, string(data))
	}
	slog.Info(fmt.Sprintf("%s - %d migrations found in %s", migrationsLogPrefix, len(migrations), dir))
	return migrations, nil
}
