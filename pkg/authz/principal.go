// Package authz carries the authenticated principal through a request and
// answers permission checks against it.
package authz

import (
	"context"
	"sync"
)

// Principal is the resolved identity behind one request. TenantID is fixed
// at session creation and never changes for the session's lifetime.
// Safe for concurrent permission checks; Permissions must not be mutated
// after the first check.
type Principal struct {
	SubjectID   string
	TenantID    string
	SessionID   string
	Roles       []string
	Permissions []string

	compileOnce sync.Once
	compiled    []permMatcher
}

func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type ctxPrincipalKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxPrincipalKey{}, p)
}

func PrincipalFrom(ctx context.Context) *Principal {
	if v := ctx.Value(ctxPrincipalKey{}); v != nil {
		if p, ok := v.(*Principal); ok {
			return p
		}
	}
	return nil
}
