// pkg/middleware/auth.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"portalcore/internal/session"
	"portalcore/internal/token"
	"portalcore/pkg/authz"
)

// AccessCookie is the transport cookie for access tokens. Clients treat the
// value as opaque.
const AccessCookie = "portal_access"

// AccessVerifier is the slice of the token service this middleware needs.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, raw string) (token.AccessClaims, error)
}

// SessionAuth authenticates every request on the wrapped routes: cookie (or
// bearer fallback) -> verified claims -> principal in context. A missing
// signing secret is a configuration failure and surfaces as a 500 with a
// loud log line, never as a 401; all token problems collapse to a generic
// 401 so the response cannot be used as a verification oracle.
func SessionAuth(verifier AccessVerifier, blacklist *session.Blacklist, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				authFailures.WithLabelValues("missing_token").Inc()
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			claims, err := verifier.VerifyAccess(r.Context(), raw)
			if err != nil {
				var ce *token.ConfigError
				if errors.As(err, &ce) {
					log.Errorw("token verification unavailable", "err", ce)
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				authFailures.WithLabelValues("invalid_token").Inc()
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			revoked, err := blacklist.IsRevoked(r.Context(), claims.SessionID)
			if err != nil {
				// Degraded blacklist: the durable store still bounds the
				// damage to the access TTL.
				log.Warnw("revocation check failed", "err", err)
			}
			if revoked {
				authFailures.WithLabelValues("revoked_session").Inc()
				log.Infow("revoked session presented", "session_id", claims.SessionID, "subject_id", claims.SubjectID)
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}
			p := &authz.Principal{
				SubjectID:   claims.SubjectID,
				TenantID:    claims.TenantID,
				SessionID:   claims.SessionID,
				Roles:       claims.Roles,
				Permissions: claims.Permissions,
			}
			next.ServeHTTP(w, r.WithContext(authz.WithPrincipal(r.Context(), p)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}
