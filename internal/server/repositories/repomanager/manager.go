// Package repomanager selects the storage engine once at startup and hands
// out repositories bound to a DBTX (a pool for plain calls, a transaction
// for multi-statement work). Exactly two engines exist: Postgres and SQLite.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/poslynx/tillkeeper/internal/dbx"
	"github.com/poslynx/tillkeeper/internal/server/repositories/refreshtokens"
	"github.com/poslynx/tillkeeper/internal/server/repositories/users"
)

// Engine names accepted by New and Open.
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}

// New returns the manager for the given engine name.
func New(engine string) (RepositoryManager, error) {
	switch engine {
	case EnginePostgres:
		return &PostgresRepositoryManager{}, nil
	case EngineSQLite:
		return &SQLiteRepositoryManager{}, nil
	default:
		return nil, fmt.Errorf("unknown storage engine %q", engine)
	}
}

// Open opens the database handle for the given engine and DSN.
func Open(engine string, dsn string) (*sql.DB, error) {
	switch engine {
	case EnginePostgres:
		return openPostgres(dsn)
	case EngineSQLite:
		return openSQLite(dsn)
	default:
		return nil, fmt.Errorf("unknown storage engine %q", engine)
	}
}
