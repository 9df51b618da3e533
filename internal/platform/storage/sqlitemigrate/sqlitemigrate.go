// Package sqlitemigrate applies embedded .sql migration files to a sqlite
// database, tracking applied files in a schema_migrations table so each
// migration runs at most once.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

const migrationTable = "schema_migrations"

// ApplyMigrations runs every pending .sql file under root in lexical order.
// An empty root reads the filesystem top level. Files are recorded by name,
// so renaming an applied migration re-runs it.
func ApplyMigrations(sqlDB *sql.DB, migrationFS fs.FS, root string) error {
	if sqlDB == nil {
		return fmt.Errorf("sql db is required")
	}
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}

	files, err := listMigrations(migrationFS, root)
	if err != nil {
		return err
	}
	if err := ensureMigrationTable(sqlDB); err != nil {
		return err
	}

	for _, name := range files {
		key := name
		if root != "." {
			key = path.Join(root, name)
		}
		applied, err := isApplied(sqlDB, key)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied {
			continue
		}
		content, err := fs.ReadFile(migrationFS, path.Join(root, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := applyOne(sqlDB, key, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func listMigrations(migrationFS fs.FS, root string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

func ensureMigrationTable(sqlDB *sql.DB) error {
	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`, migrationTable)
	if _, err := sqlDB.Exec(createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	return nil
}

func applyOne(sqlDB *sql.DB, key, content string) error {
	upSQL := ExtractUpMigration(content)
	if strings.TrimSpace(upSQL) == "" {
		return nil
	}

	tx, err := sqlDB.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec(upSQL); err != nil {
		// Schema objects created by an earlier partial run count as done.
		if !IsAlreadyExistsError(err) {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.Exec(
		fmt.Sprintf("INSERT OR IGNORE INTO %s (name, applied_at) VALUES (?, ?)", migrationTable),
		key,
		time.Now().UTC().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}

// ExtractUpMigration returns the SQL in the -- +migrate Up section. Content
// without section markers is treated as a bare up migration.
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}

// IsAlreadyExistsError reports whether this error indicates idempotent DDL success.
func IsAlreadyExistsError(err error) bool {
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "already exists") || strings.Contains(value, "duplicate column name")
}

func isApplied(sqlDB *sql.DB, name string) (bool, error) {
	var found int
	err := sqlDB.QueryRow("SELECT 1 FROM "+migrationTable+" WHERE name = ?", name).Scan(&found)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
