package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// trackingColumns holds the version and applied_at column types per dialect.
var trackingColumns = map[Dialect][2]string{
	Postgres: {"VARCHAR(255)", "TIMESTAMPTZ DEFAULT NOW()"},
	MySQL:    {"VARCHAR(255)", "TIMESTAMP DEFAULT CURRENT_TIMESTAMP"},
	SQLite:   {"TEXT", "DATETIME DEFAULT CURRENT_TIMESTAMP"},
}

type migration struct {
	version string
	script  string
}

// loadMigrations reads the embedded scripts for a dialect in version order.
func loadMigrations(d Dialect) ([]migration, error) {
	dir := path.Join("migrations", string(d))
	names, err := fs.Glob(migrationsFS, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", d, err)
	}
	slices.Sort(names)

	out := make([]migration, 0, len(names))
	for _, name := range names {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		out = append(out, migration{version: path.Base(name), script: string(body)})
	}
	return out, nil
}

func (p *Pool) ensureTrackingTable(ctx context.Context) error {
	cols := trackingColumns[p.dialect]
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS schema_migrations (version %s PRIMARY KEY, applied_at %s)",
		cols[0], cols[1])
	if _, err := p.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	return nil
}

func scanVersions(rows *sql.Rows) ([]string, error) {
	defer rows.Close()
	var versions []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// Migrate brings the schema up to date. Each script runs in its own
// transaction together with its schema_migrations row.
func (p *Pool) Migrate(ctx context.Context) error {
	if err := p.ensureTrackingTable(ctx); err != nil {
		return err
	}
	done, err := p.MigrationsApplied(ctx)
	if err != nil {
		return err
	}

	all, err := loadMigrations(p.dialect)
	if err != nil {
		return err
	}
	for _, m := range all {
		if slices.Contains(done, m.version) {
			continue
		}
		start := time.Now()
		if err := p.apply(ctx, m); err != nil {
			return err
		}
		slog.Info("applied migration", "dialect", p.dialect, "version", m.version,
			"took", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

func (p *Pool) apply(ctx context.Context, m migration) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", m.version, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if strings.TrimSpace(m.script) != "" {
		if _, err = tx.ExecContext(ctx, m.script); err != nil {
			return fmt.Errorf("run %s: %w", m.version, err)
		}
	}
	if _, err = tx.ExecContext(ctx, p.dialect.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), m.version); err != nil {
		return fmt.Errorf("record %s: %w", m.version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", m.version, err)
	}
	return nil
}

// MigrationsApplied lists recorded migration versions in order.
func (p *Pool) MigrationsApplied(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	versions, err := scanVersions(rows)
	if err != nil {
		return nil, fmt.Errorf("read applied migrations: %w", err)
	}
	return versions, nil
}
