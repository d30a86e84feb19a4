// Package repositories opens the local SQLite database and wires the
// repositories that live in it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophmeet/internal/client/migrations"
	"github.com/dmitrijs2005/gophmeet/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophmeet/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Local bundles the local database and its repositories.
type Local struct {
	DB       *sql.DB
	Metadata metadata.Repository
}

// Close closes the database.
func (l *Local) Close() error {
	return l.DB.Close()
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// OpenLocal opens the SQLite database at dsn and migrates it.
func OpenLocal(ctx context.Context, dsn string) (*Local, error) {
	if err := filex.EnsureParentDir(dsn); err != nil {
		return nil, fmt.Errorf("prepare local db: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate local db: %w", err)
	}

	return &Local{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
	}, nil
}
