// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cardkeeper/internal/dbx"
	"github.com/dmitrijs2005/cardkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/blobs"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories. Blobs go
// to objectStore when one is set, otherwise to the blobs table.
type PostgresRepositoryManager struct {
	objectStore blobs.Repository
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

// Blobs returns the blob store. An object store ignores db.
func (m *PostgresRepositoryManager) Blobs(db dbx.DBTX) blobs.Repository {
	if m.objectStore != nil {
		return m.objectStore
	}
	return blobs.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
// objectStore may be nil.
func NewPostgresRepositoryManager(objectStore blobs.Repository) RepositoryManager {
	return &PostgresRepositoryManager{objectStore: objectStore}
}
