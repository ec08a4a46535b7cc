// internal/httpapi/respond.go
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"portalcore/internal/directory"
	"portalcore/internal/query"
	"portalcore/internal/session"
	"portalcore/internal/token"
	"portalcore/pkg/authz"
	"portalcore/pkg/problems"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, slug, title string, extra map[string]any) {
	body := map[string]any{
		"type":  problems.Type(slug),
		"title": title,
	}
	for k, v := range extra {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto responses. Configuration errors
// surface loudly in logs and as 500s; authentication failures stay
// deliberately generic; forbidden and validation responses carry the
// specific key that failed.
func (a *App) writeError(w http.ResponseWriter, err error) {
	var ce *token.ConfigError
	if errors.As(err, &ce) {
		a.log.Errorw("fatal configuration error", "err", ce)
		writeProblem(w, http.StatusInternalServerError, "configuration", "Service misconfigured", nil)
		return
	}
	var fe *authz.ForbiddenError
	if errors.As(err, &fe) {
		writeProblem(w, http.StatusForbidden, "forbidden", "Forbidden", map[string]any{
			"permission": fe.Permission,
		})
		return
	}
	var ve *query.ValidationError
	if errors.As(err, &ve) {
		extra := map[string]any{"reason": ve.Reason}
		if ve.Parameter != "" {
			extra["parameter"] = ve.Parameter
		}
		writeProblem(w, http.StatusUnprocessableEntity, "query-validation", "Query rejected", extra)
		return
	}
	switch {
	case errors.Is(err, session.ErrRevoked):
		// Same shape as any other 401, but logged distinctly for audit.
		a.log.Infow("revoked session rejected")
		writeProblem(w, http.StatusUnauthorized, "unauthenticated", "Unauthenticated", nil)
	case errors.Is(err, token.ErrUnauthenticated), errors.Is(err, directory.ErrInvalidCredentials):
		writeProblem(w, http.StatusUnauthorized, "unauthenticated", "Unauthenticated", nil)
	default:
		a.log.Errorw("request failed", "err", err)
		writeProblem(w, http.StatusInternalServerError, "internal", "Internal error", nil)
	}
}
