// internal/directory/postgres.go
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type pgDirectory struct {
	db  *pgxpool.Pool
	log *zap.SugaredLogger
}

// NewPostgresDirectory constructs a PostgreSQL-backed user directory.
func NewPostgresDirectory(db *pgxpool.Pool, log *zap.SugaredLogger) Directory {
	return &pgDirectory{db: db, log: log}
}

// EnsureSchema creates user and role tables if they do not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS users (
  id uuid PRIMARY KEY,
  tenant_id uuid NOT NULL,
  email text NOT NULL UNIQUE,
  password_hash text NOT NULL,
  display_name text NOT NULL DEFAULT '',
  disabled boolean NOT NULL DEFAULT false,
  created_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS user_roles (
  user_id uuid REFERENCES users(id) ON DELETE CASCADE,
  role text NOT NULL,
  PRIMARY KEY (user_id, role)
);
CREATE TABLE IF NOT EXISTS role_permissions (
  role text NOT NULL,
  permission text NOT NULL,
  PRIMARY KEY (role, permission)
);
`)
	return err
}

func (d *pgDirectory) Authenticate(ctx context.Context, email, password string) (*User, error) {
	row := d.db.QueryRow(ctx, `
		SELECT id, tenant_id, email, password_hash, display_name, disabled
		FROM users WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
	var u User
	var hash string
	var disabled bool
	if err := row.Scan(&u.ID, &u.TenantID, &u.Email, &hash, &u.DisplayName, &disabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	ok, err := CheckPassword(password, hash)
	if err != nil {
		d.log.Warnw("unverifiable password hash", "subject_id", u.ID, "err", err)
		return nil, ErrInvalidCredentials
	}
	if !ok || disabled {
		return nil, ErrInvalidCredentials
	}
	u.Roles, u.Permissions, err = d.ResolvePrivileges(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *pgDirectory) ResolvePrivileges(ctx context.Context, subjectID string) ([]string, []string, error) {
	rows, err := d.db.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, subjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("load roles: %w", err)
	}
	defer rows.Close()
	var roles []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate roles: %w", err)
	}

	prows, err := d.db.Query(ctx, `
		SELECT DISTINCT permission FROM role_permissions
		WHERE role = ANY($1) ORDER BY permission`, roles)
	if err != nil {
		return nil, nil, fmt.Errorf("load permissions: %w", err)
	}
	defer prows.Close()
	var perms []string
	for prows.Next() {
		var p string
		if err := prows.Scan(&p); err != nil {
			return nil, nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	if err := prows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate permissions: %w", err)
	}
	return roles, perms, nil
}
