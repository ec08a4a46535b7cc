// pkg/middleware/tenant.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"portalcore/pkg/authz"
	"portalcore/pkg/tenants"
)

type ctxTenantKey struct{}

// TenantSelector resolves a tenant for pre-authentication flows from the
// X-Tenant-ID header (uuid or slug). Without a header the provider's
// default tenant is used, then the configured default tenant id. Once a
// verified token is present, the principal's tenant always wins over
// anything resolved here; see TenantIDFrom.
func TenantSelector(prov tenants.Provider, defaultTenantID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sel := strings.TrimSpace(r.Header.Get("X-Tenant-ID"))
			var t tenants.Tenant
			var err error
			if sel != "" {
				t, err = prov.ResolveByID(r.Context(), sel)
				if err != nil {
					t, err = prov.ResolveBySlug(r.Context(), sel)
				}
				if err != nil {
					http.Error(w, "unknown tenant", http.StatusNotFound)
					return
				}
			} else {
				t, err = prov.Default(r.Context())
				if err != nil && defaultTenantID != "" {
					t, err = prov.ResolveByID(r.Context(), defaultTenantID)
				}
				if err != nil {
					// No selector and no default configured; handlers that
					// need a tenant will reject.
					next.ServeHTTP(w, r)
					return
				}
			}
			ctx := context.WithValue(r.Context(), ctxTenantKey{}, t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFrom returns the tenant resolved for a pre-authentication flow.
func TenantFrom(ctx context.Context) tenants.Tenant {
	if v := ctx.Value(ctxTenantKey{}); v != nil {
		return v.(tenants.Tenant)
	}
	return tenants.Tenant{}
}

// TenantIDFrom applies the resolution precedence for the active tenant:
// the verified principal's tenant when present, else the pre-auth
// selector/default. A caller can never assert a tenant other than the one
// its session was issued for.
func TenantIDFrom(ctx context.Context) string {
	if p := authz.PrincipalFrom(ctx); p != nil {
		return p.TenantID
	}
	return TenantFrom(ctx).ID
}
