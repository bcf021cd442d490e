package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies embedded schema migrations that have not run yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW())`); err != nil {
		return nil, fmt.Errorf("platform/db: create schema_migrations: %w", err)
	}
	versions, err := migrationVersions()
	if err != nil {
		return nil, err
	}
	var applied []string
	for _, version := range versions {
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists); err != nil {
			return applied, fmt.Errorf("platform/db: check migration %s: %w", version, err)
		}
		if exists {
			continue
		}
		body, err := migrationFS.ReadFile("migrations/" + version + ".sql")
		if err != nil {
			return applied, fmt.Errorf("platform/db: read migration %s: %w", version, err)
		}
		err = WithTx(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("platform/db: apply migration %s: %w", version, err)
		}
		applied = append(applied, version)
	}
	return applied, nil
}

func migrationVersions() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("platform/db: list migrations: %w", err)
	}
	versions := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(entry.Name(), ".sql"))
	}
	sort.Strings(versions)
	return versions, nil
}
