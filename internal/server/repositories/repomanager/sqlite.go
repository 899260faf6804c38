package repomanager

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/timegrid/timegrid/internal/dbx"
	sqlitemigrations "github.com/timegrid/timegrid/internal/server/migrations/sqlite"
	"github.com/timegrid/timegrid/internal/server/repositories/timesheets"
)

// SQLiteRepositoryManager vends SQLite-backed repository implementations.
// Intended for single-node deployments and tests.
type SQLiteRepositoryManager struct{}

// NewSQLiteRepositoryManager constructs a SQLite-backed RepositoryManager.
func NewSQLiteRepositoryManager() RepositoryManager {
	return &SQLiteRepositoryManager{}
}

// Timesheets returns a timesheets.Repository bound to the provided DBTX.
func (m *SQLiteRepositoryManager) Timesheets(db dbx.DBTX) timesheets.Repository {
	return timesheets.NewSQLiteRepository(db)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(sqlitemigrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
