// internal/session/postgres.go
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed session store.
func NewPostgresStore(db *pgxpool.Pool) Store {
	return &pgStore{db: db}
}

// EnsureSchema creates the sessions table if it does not already exist.
// Safe to call repeatedly (idempotent).
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sessions (
  id uuid PRIMARY KEY,
  subject_id uuid NOT NULL,
  tenant_id uuid NOT NULL,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  last_active_at timestamptz NOT NULL DEFAULT NOW(),
  expires_at timestamptz NOT NULL,
  client_ip text NOT NULL DEFAULT '',
  user_agent text NOT NULL DEFAULT '',
  revoked boolean NOT NULL DEFAULT false
);
CREATE INDEX IF NOT EXISTS sessions_subject_idx ON sessions(subject_id);
`)
	return err
}

func (r *pgStore) Create(ctx context.Context, s *Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, subject_id, tenant_id, created_at, last_active_at, expires_at, client_ip, user_agent, revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.SubjectID, s.TenantID, s.CreatedAt, s.LastActiveAt, s.ExpiresAt, s.ClientIP, s.UserAgent, s.Revoked,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *pgStore) Get(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, subject_id, tenant_id, created_at, last_active_at, expires_at, client_ip, user_agent, revoked
		FROM sessions WHERE id = $1`, id)
	s := &Session{}
	err := row.Scan(&s.ID, &s.SubjectID, &s.TenantID, &s.CreatedAt, &s.LastActiveAt, &s.ExpiresAt, &s.ClientIP, &s.UserAgent, &s.Revoked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

func (r *pgStore) ListBySubject(ctx context.Context, subjectID string) ([]*Session, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, subject_id, tenant_id, created_at, last_active_at, expires_at, client_ip, user_agent, revoked
		FROM sessions WHERE subject_id = $1 ORDER BY last_active_at DESC`, subjectID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var out []*Session
	for rows.Next() {
		s := &Session{}
		if err := rows.Scan(&s.ID, &s.SubjectID, &s.TenantID, &s.CreatedAt, &s.LastActiveAt, &s.ExpiresAt, &s.ClientIP, &s.UserAgent, &s.Revoked); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (r *pgStore) Touch(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE sessions SET last_active_at = $2 WHERE id = $1`, id, time.Now())
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgStore) Revoke(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE sessions SET revoked = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgStore) RevokeAll(ctx context.Context, subjectID string) error {
	_, err := r.db.Exec(ctx, `UPDATE sessions SET revoked = true WHERE subject_id = $1`, subjectID)
	if err != nil {
		return fmt.Errorf("revoke sessions for subject: %w", err)
	}
	return nil
}
