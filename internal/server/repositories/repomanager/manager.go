package repomanager

import (
	"context"
	"database/sql"

	"github.com/timegrid/timegrid/internal/dbx"
	"github.com/timegrid/timegrid/internal/server/repositories/timesheets"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Timesheets(db dbx.DBTX) timesheets.Repository
}
