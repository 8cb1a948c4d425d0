package store

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tutur3u/timegrid/internal/migrations"
)

// PgxPool is the subset of pgxpool.Pool the migration runner needs. Tests
// substitute a mock without touching the rest of the store package.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// ApplyMigrations brings the database up to date with the embedded SQL
// migrations. A populated database without a schema_migrations table is
// assumed to already carry the initial schema; the first migration is then
// recorded instead of replayed.
func ApplyMigrations(ctx context.Context, db PgxPool) error {
	m := migrator{db: db}

	versions, err := m.embeddedVersions()
	if err != nil || len(versions) == 0 {
		return err
	}

	tracked, err := m.trackingExists(ctx)
	if err != nil {
		return err
	}
	if !tracked {
		populated, err := m.hasUserTables(ctx)
		if err != nil {
			return err
		}
		if err := m.ensureTracking(ctx); err != nil {
			return err
		}
		if populated {
			if err := m.markApplied(ctx, versions[0]); err != nil {
				return err
			}
		}
	}

	for _, version := range versions {
		done, err := m.versionApplied(ctx, version)
		if err != nil {
			return err
		}
		if done {
			continue
		}
		if err := m.run(ctx, version); err != nil {
			return err
		}
	}
	return nil
}

type migrator struct {
	db PgxPool
}

// embeddedVersions returns the .sql files of the embedded migration set in
// lexical order; the NNN_ prefix makes that the application order.
func (m migrator) embeddedVersions() ([]string, error) {
	entries, err := fs.ReadDir(migrations.Files, ".")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		versions = append(versions, e.Name())
	}
	sort.Strings(versions)
	return versions, nil
}

func (m migrator) trackingExists(ctx context.Context) (bool, error) {
	const q = `SELECT EXISTS (
        SELECT 1 FROM information_schema.tables
        WHERE table_schema='public' AND table_name='schema_migrations'
)`
	var exists bool
	if err := m.db.QueryRow(ctx, q).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration table: %w", err)
	}
	return exists, nil
}

func (m migrator) hasUserTables(ctx context.Context) (bool, error) {
	const q = `SELECT COUNT(*) FROM information_schema.tables
WHERE table_schema NOT IN ('pg_catalog', 'information_schema')`
	var n int
	if err := m.db.QueryRow(ctx, q).Scan(&n); err != nil {
		return false, fmt.Errorf("count tables: %w", err)
	}
	return n > 0, nil
}

func (m migrator) ensureTracking(ctx context.Context) error {
	const q = `CREATE TABLE IF NOT EXISTS schema_migrations (
        version TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := m.db.Exec(ctx, q); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func (m migrator) versionApplied(ctx context.Context, version string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version=$1)`
	var exists bool
	if err := m.db.QueryRow(ctx, q, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}

const recordVersionSQL = `INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`

func (m migrator) markApplied(ctx context.Context, version string) error {
	if _, err := m.db.Exec(ctx, recordVersionSQL, version); err != nil {
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	return nil
}

// run executes one migration and records it in the same transaction, so a
// failure partway through leaves the tracking table untouched.
func (m migrator) run(ctx context.Context, version string) error {
	stmts, err := migrations.Files.ReadFile(version)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, string(stmts)); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, recordVersionSQL, version); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
