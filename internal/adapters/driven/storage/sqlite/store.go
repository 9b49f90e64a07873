// Package sqlite persists the local run catalog in a SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. The catalog is
// a convenience record of past runs on the machine that made them; the
// backup volumes themselves never reference it and restoring from media
// must not depend on it.
//
// By default the database is stored at ~/.create-par2/catalog.db. The
// schema is managed through versioned migrations embedded from the
// migrations/ directory.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/maglar0/create-par2/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/maglar0/create-par2/internal/core/domain"
	"github.com/maglar0/create-par2/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RunStore = (*Store)(nil)

// Store is a SQLite-backed run catalog.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the catalog at the specified data
// directory. If dataDir is empty, defaults to ~/.create-par2.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".create-par2")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	// WAL mode so a long run's final Record never blocks on a
	// concurrent "runs" listing.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Record stores one completed run.
func (s *Store) Record(ctx context.Context, rec domain.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, volumes, redundancy, total_bytes, redundancy_bytes, out_dir, generator, verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			volumes = excluded.volumes,
			redundancy = excluded.redundancy,
			total_bytes = excluded.total_bytes,
			redundancy_bytes = excluded.redundancy_bytes,
			out_dir = excluded.out_dir,
			generator = excluded.generator,
			verified = excluded.verified
	`, rec.ID, rec.StartedAt.UTC(), rec.Volumes, rec.Redundancy, rec.TotalBytes,
		rec.RedundancyBytes, rec.OutDir, rec.Generator, rec.Verified)

	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// List returns recorded runs, most recent first.
func (s *Store) List(ctx context.Context) ([]domain.RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, volumes, redundancy, total_bytes, redundancy_bytes, out_dir, generator, verified
		FROM runs
		ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.RunRecord
		var startedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &startedAt, &rec.Volumes, &rec.Redundancy,
			&rec.TotalBytes, &rec.RedundancyBytes, &rec.OutDir, &rec.Generator, &rec.Verified); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if startedAt.Valid {
			rec.StartedAt = startedAt.Time
		}
		runs = append(runs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("marking migration %s applied: %w", name, err)
		}
	}
	return nil
}
