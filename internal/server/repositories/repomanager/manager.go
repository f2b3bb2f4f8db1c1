package repomanager

import (
	"context"
	"database/sql"

	"github.com/angel-serrato/authweb/internal/dbx"
	"github.com/angel-serrato/authweb/internal/server/repositories/resettokens"
	"github.com/angel-serrato/authweb/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a concrete handle, which
// lets services run several repositories inside one transaction by passing
// the same *sql.Tx to each.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
}
