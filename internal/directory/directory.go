// Package directory resolves portal users: credential checks at login and
// fresh role/permission resolution at token rotation.
package directory

import (
	"context"
	"errors"
)

// ErrInvalidCredentials covers unknown email and wrong password alike; the
// two cases are indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

type User struct {
	ID          string
	TenantID    string
	Email       string
	DisplayName string
	Roles       []string
	Permissions []string
}

type Directory interface {
	// Authenticate verifies credentials and returns the user with roles
	// and effective permissions resolved.
	Authenticate(ctx context.Context, email, password string) (*User, error)
	// ResolvePrivileges re-reads a subject's roles and permissions from
	// the store. Called on every rotation so privilege changes and
	// revocations take effect without waiting for access-token expiry.
	ResolvePrivileges(ctx context.Context, subjectID string) (roles, permissions []string, err error)
}
