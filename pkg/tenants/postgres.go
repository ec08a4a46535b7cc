// pkg/tenants/postgres.go
package tenants

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgProvider implements Provider backed by PostgreSQL.
type pgProvider struct {
	dbPool *pgxpool.Pool
	log    *zap.SugaredLogger
}

// NewPostgresProvider constructs a PostgreSQL-backed tenant provider.
func NewPostgresProvider(dbPool *pgxpool.Pool, log *zap.SugaredLogger) Provider {
	return &pgProvider{dbPool: dbPool, log: log}
}

// EnsureSchema creates required tables if they do not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, dbPool *pgxpool.Pool) error {
	_, err := dbPool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenants (
  id uuid PRIMARY KEY,
  slug text UNIQUE,
  name text NOT NULL DEFAULT '',
  is_default boolean NOT NULL DEFAULT false,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS tenants_single_default_idx ON tenants(is_default) WHERE is_default;
`)
	return err
}

// SeedFromEnv ingests initial tenant data.
// jsonSeed format (TENANT_SEED_JSON):
// [ {"id":"...","slug":"acme","name":"Acme Foods","is_default":false} ]
func SeedFromEnv(ctx context.Context, dbPool *pgxpool.Pool, jsonSeed string) error {
	if jsonSeed == "" {
		return nil
	}
	var entries []struct {
		ID        string `json:"id"`
		Slug      string `json:"slug"`
		Name      string `json:"name"`
		IsDefault bool   `json:"is_default"`
	}
	if err := json.Unmarshal([]byte(jsonSeed), &entries); err != nil {
		return err
	}
	for _, e := range entries {
		_, _ = dbPool.Exec(ctx, `INSERT INTO tenants(id,slug,name,is_default)
		  VALUES ($1,$2,$3,$4)
		  ON CONFLICT (id) DO UPDATE SET slug=EXCLUDED.slug,name=EXCLUDED.name,is_default=EXCLUDED.is_default,updated_at=NOW()`,
			e.ID, e.Slug, e.Name, e.IsDefault)
	}
	return nil
}

func (p *pgProvider) ResolveByID(ctx context.Context, id string) (Tenant, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT id,slug,name,is_default FROM tenants WHERE id=$1`, id)
	var t Tenant
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.IsDefault); err != nil {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

func (p *pgProvider) ResolveBySlug(ctx context.Context, slug string) (Tenant, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT id,slug,name,is_default FROM tenants WHERE slug=$1`, slug)
	var t Tenant
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.IsDefault); err != nil {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

func (p *pgProvider) Default(ctx context.Context) (Tenant, error) {
	row := p.dbPool.QueryRow(ctx, `SELECT id,slug,name,is_default FROM tenants WHERE is_default LIMIT 1`)
	var t Tenant
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.IsDefault); err != nil {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}
