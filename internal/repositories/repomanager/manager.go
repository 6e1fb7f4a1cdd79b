package repomanager

import (
	"context"
	"database/sql"

	"github.com/BeneGuydeF/api-ma-spiritualite/internal/dbx"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/credits"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/journal"
	"github.com/BeneGuydeF/api-ma-spiritualite/internal/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX. Services pass the
// raw *sql.DB for standalone operations and a transaction handle when
// several repositories must commit together.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Journal(db dbx.DBTX) journal.Repository
	Credits(db dbx.DBTX) credits.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
