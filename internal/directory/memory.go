// internal/directory/memory.go
package directory

import (
	"context"
	"strings"
	"sync"
)

// memDirectory is an in-memory directory for dev bring-up and tests.
// Privileges can be swapped at runtime, which tests use to exercise fresh
// resolution on rotation.
type memDirectory struct {
	mu      sync.RWMutex
	byEmail map[string]*memUser
	byID    map[string]*memUser
}

type memUser struct {
	user User
	hash string
}

func NewMemoryDirectory() *memDirectory {
	return &memDirectory{byEmail: map[string]*memUser{}, byID: map[string]*memUser{}}
}

// AddUser registers a user with a plaintext password (hashed on insert).
func (m *memDirectory) AddUser(u User, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mu := &memUser{user: u, hash: hash}
	m.byEmail[strings.ToLower(u.Email)] = mu
	m.byID[u.ID] = mu
	return nil
}

// SetPrivileges replaces a user's roles and permissions.
func (m *memDirectory) SetPrivileges(subjectID string, roles, permissions []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[subjectID]; ok {
		u.user.Roles = roles
		u.user.Permissions = permissions
	}
}

func (m *memDirectory) Authenticate(ctx context.Context, email, password string) (*User, error) {
	m.mu.RLock()
	u, ok := m.byEmail[strings.ToLower(strings.TrimSpace(email))]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	match, err := CheckPassword(password, u.hash)
	if err != nil || !match {
		return nil, ErrInvalidCredentials
	}
	cp := u.user
	return &cp, nil
}

func (m *memDirectory) ResolvePrivileges(ctx context.Context, subjectID string) ([]string, []string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.byID[subjectID]; ok {
		return append([]string(nil), u.user.Roles...), append([]string(nil), u.user.Permissions...), nil
	}
	return nil, nil, nil
}
