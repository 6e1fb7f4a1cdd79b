// Package repomanager provides a concrete RepositoryManager for the
// embedded SQLite engine, wiring together repository constructors and
// database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/dbx"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/migrations"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/credits"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/journal"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/users"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// SQLiteRepositoryManager vends SQLite-backed repository implementations
// and exposes a schema migration hook.
type SQLiteRepositoryManager struct{}

// NewSQLiteRepositoryManager constructs a SQLite-backed RepositoryManager.
func NewSQLiteRepositoryManager() *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLiteRepository(db)
}

// Journal returns a journal.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Journal(db dbx.DBTX) journal.Repository {
	return journal.NewSQLiteRepository(db)
}

// Credits returns a credits.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Credits(db dbx.DBTX) credits.Repository {
	return credits.NewSQLiteRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// openPragmas are applied through the DSN so every pooled connection gets
// them, not just the one that ran an Exec: WAL for lock-free reads alongside
// writers, enforced foreign keys for the owner invariant, and a busy timeout
// so a concurrent writer waits instead of failing.
const openPragmas = "_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(FULL)" +
	"&_pragma=foreign_keys(1)" +
	"&_pragma=busy_timeout(5000)"

// Open opens (or creates) the SQLite database file backing all state.
func Open(path string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+openPragmas)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	return db, nil
}
