package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/attendpass/internal/dbx"
	"github.com/dmitrijs2005/attendpass/internal/server/repositories/attendance"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Attendance(db dbx.DBTX) attendance.Repository
}
