// Package migrations creates the PostGIS schema of the reference tables.
//
// The SQL files are embedded and applied in file name order (NNN_name.sql).
// Applied file names are recorded in schema_migrations, so Run is idempotent.
// The tables are only created here; filling them is the loader's job.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed *.sql
var sqlFiles embed.FS

// RequiredTables lists the reference tables every query depends on.
var RequiredTables = []string{
	"bus_station",
	"bus_route",
	"hang_jeong_gu",
}

type migration struct {
	version string // file name
	sql     string
}

// Run applies every migration not yet recorded in schema_migrations. Each one
// runs in its own transaction together with its bookkeeping insert.
func Run(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
		    version    VARCHAR(255) PRIMARY KEY,
		    applied_at TIMESTAMP DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("migrations: ensure tracking table: %w", err)
	}

	all, err := load(sqlFiles)
	if err != nil {
		return fmt.Errorf("migrations: load files: %w", err)
	}

	done, err := appliedVersions(ctx, pool)
	if err != nil {
		return fmt.Errorf("migrations: read applied versions: %w", err)
	}

	applied := 0
	for _, m := range all {
		if done[m.version] {
			continue
		}
		if err := apply(ctx, pool, m); err != nil {
			return fmt.Errorf("migrations: apply %q: %w", m.version, err)
		}
		logger.Info("migration applied", zap.String("version", m.version))
		applied++
	}

	logger.Info("schema up to date", zap.Int("applied", applied), zap.Int("known", len(all)))
	return nil
}

// CheckSchema verifies that PostGIS is installed and that every table in
// RequiredTables exists. It does not check that the tables hold data.
func CheckSchema(ctx context.Context, pool *pgxpool.Pool) error {
	var postgis string
	if err := pool.QueryRow(ctx, `SELECT PostGIS_Version()`).Scan(&postgis); err != nil {
		return fmt.Errorf("migrations: postgis unavailable: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT t
		FROM unnest($1::text[]) AS t
		WHERE to_regclass('public.' || t) IS NULL`, RequiredTables)
	if err != nil {
		return fmt.Errorf("migrations: check tables: %w", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return fmt.Errorf("migrations: check tables: scan: %w", err)
		}
		missing = append(missing, t)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("migrations: check tables: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("migrations: required tables missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

// load reads the *.sql files of fsys in lexical order.
func load(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}

	out := make([]migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", name, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			return nil, fmt.Errorf("%q is empty", name)
		}
		out = append(out, migration{version: name, sql: string(content)})
	}
	return out, nil
}

func apply(ctx context.Context, pool *pgxpool.Pool, m migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return fmt.Errorf("exec sql: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit(ctx)
}
