package tenants

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("tenant not found")

type Provider interface {
	// Resolve tenant from its UUID.
	ResolveByID(ctx context.Context, id string) (Tenant, error)
	// Resolve tenant from its slug (tenant-selector header value).
	ResolveBySlug(ctx context.Context, slug string) (Tenant, error)
	// Default tenant for pre-authentication bootstrap flows.
	Default(ctx context.Context) (Tenant, error)
}
