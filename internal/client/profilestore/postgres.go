package profilestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmeet/internal/client/models"
	"github.com/dmitrijs2005/gophmeet/internal/client/profilestore/migrations"
	"github.com/dmitrijs2005/gophmeet/internal/dbx"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Postgres stores each profile as a JSONB document. Update merges the given
// fields into the document with the || operator.
type Postgres struct {
	db     dbx.DBTX
	closer func() error
}

func NewPostgres(db dbx.DBTX) *Postgres {
	return &Postgres{db: db, closer: func() error { return nil }}
}

// seams for tests
var (
	sqlOpen        = sql.Open
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return goose.UpContext(ctx, db, dir, opts...)
	}
)

// OpenPostgres connects with the pgx driver and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}

	p := NewPostgres(db)
	p.closer = db.Close
	return p, nil
}

// RunMigrations applies the embedded schema migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func (p *Postgres) Get(ctx context.Context, id string) (*models.Profile, error) {
	query :=
		`SELECT fields, created_at, updated_at FROM profiles
		 WHERE id = $1
		 `

	var (
		raw     []byte
		created time.Time
		updated time.Time
	)
	err := p.db.QueryRowContext(ctx, query, id).Scan(&raw, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	fields := models.Fields{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}

	return &models.Profile{ID: id, Fields: fields, CreatedAt: created, UpdatedAt: updated}, nil
}

// Create inserts the profile. On conflict the fields are merged into the
// existing document, which keeps its created_at.
func (p *Postgres) Create(ctx context.Context, id string, fields models.Fields) error {
	f, err := prepareCreate(id, fields)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	query :=
		`INSERT INTO profiles (id, fields, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 ON CONFLICT (id) DO UPDATE
		 SET fields = profiles.fields || EXCLUDED.fields, updated_at = now()
		 `

	if _, err := p.db.ExecContext(ctx, query, id, raw); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (p *Postgres) Update(ctx context.Context, id string, fields models.Fields) error {
	f, err := prepareUpdate(id, fields)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	query :=
		`UPDATE profiles SET fields = fields || $2::jsonb, updated_at = now()
		 WHERE id = $1
		 `

	res, err := p.db.ExecContext(ctx, query, id, raw)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.closer()
}
