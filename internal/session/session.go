// Package session owns the durable record behind every issued token pair.
// A session row is the sole basis for refresh validity: a structurally
// valid refresh token whose session is missing or revoked is dead.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrRevoked  = errors.New("session revoked")
)

type Session struct {
	ID           string // uuid, primary key
	SubjectID    string
	TenantID     string
	CreatedAt    time.Time
	LastActiveAt time.Time
	ExpiresAt    time.Time
	ClientIP     string
	UserAgent    string
	Revoked      bool
}

// Store persists sessions. All operations are keyed by session id, never
// by token content. Concurrent Create calls for the same subject each
// produce an independent session; there is no single-session invariant.
type Store interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*Session, error)
	Touch(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) error
	RevokeAll(ctx context.Context, subjectID string) error
}
