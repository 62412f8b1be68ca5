package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophnotes/internal/dbx"
	"github.com/dmitrijs2005/gophnotes/internal/server/repositories/notes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Notes(db dbx.DBTX) notes.Repository
}

// Store is the storage backend the server runs on. WithinTx hands fn a
// repository whose writes commit together where the backend supports it.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo notes.Repository) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
