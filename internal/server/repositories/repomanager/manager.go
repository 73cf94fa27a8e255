package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/tasks"
)

// RepositoryManager vends repositories bound to a *sql.DB or a *sql.Tx and
// runs schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Tasks(db dbx.DBTX) tasks.Repository
}
