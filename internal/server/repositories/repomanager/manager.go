// Package repomanager wires concrete repositories over a shared database
// handle and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/passguard/passguard/internal/dbx"
	"github.com/passguard/passguard/internal/server/repositories/accounts"
	"github.com/passguard/passguard/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Accounts(db dbx.DBTX) accounts.Repository
}
