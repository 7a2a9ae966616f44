package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/dashkeeper/internal/dbx"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/dashboards"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/sources"
	"github.com/dmitrijs2005/dashkeeper/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Dashboards(db dbx.DBTX) dashboards.Repository
	Sources(db dbx.DBTX) sources.Repository
}
