// Package repomanager builds repositories bound to a DB handle or an open
// transaction, and runs the embedded schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"blockvault/internal/dbx"
	"blockvault/internal/server/repositories/blocks"
	"blockvault/internal/server/repositories/fields"
	"blockvault/internal/server/repositories/refreshtokens"
	"blockvault/internal/server/repositories/users"
)

// RepositoryManager is a factory for repositories. Passing the same *sql.Tx
// to several factories places their operations in one transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Blocks(db dbx.DBTX) blocks.Repository
	Fields(db dbx.DBTX) fields.Repository
}
