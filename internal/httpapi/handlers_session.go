// internal/httpapi/handlers_session.go
package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"portalcore/internal/session"
	"portalcore/pkg/authz"
	"portalcore/pkg/middleware"
)

type principalResponse struct {
	SubjectID   string   `json:"subjectId"`
	TenantID    string   `json:"tenantId"`
	SessionID   string   `json:"sessionId"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func toPrincipalResponse(p *authz.Principal) principalResponse {
	return principalResponse{
		SubjectID: p.SubjectID, TenantID: p.TenantID, SessionID: p.SessionID,
		Roles: p.Roles, Permissions: p.Permissions,
	}
}

// login authenticates credentials, issues a token pair and creates the
// session row the pair is bound to.
func (a *App) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad-request", "Malformed request body", nil)
		return
	}
	user, err := a.dir.Authenticate(r.Context(), body.Email, body.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}
	// Credentials only open a session under the tenant the request
	// selected. Same generic response as a bad password.
	if tid := middleware.TenantIDFrom(r.Context()); tid != "" && tid != user.TenantID {
		a.log.Infow("cross-tenant login rejected", "subject_id", user.ID, "selected_tenant", tid)
		writeProblem(w, http.StatusUnauthorized, "unauthenticated", "Unauthenticated", nil)
		return
	}
	p := &authz.Principal{
		SubjectID:   user.ID,
		TenantID:    user.TenantID,
		Roles:       user.Roles,
		Permissions: user.Permissions,
	}
	pair, err := a.tokens.Issue(r.Context(), p)
	if err != nil {
		a.writeError(w, err)
		return
	}
	p.SessionID = pair.Access.SessionID
	sess := &session.Session{
		ID:           pair.Access.SessionID,
		SubjectID:    user.ID,
		TenantID:     user.TenantID,
		CreatedAt:    pair.Access.IssuedAt,
		LastActiveAt: pair.Access.IssuedAt,
		ExpiresAt:    pair.Refresh.ExpiresAt,
		ClientIP:     clientIP(r),
		UserAgent:    r.UserAgent(),
	}
	if err := a.sessions.Create(r.Context(), sess); err != nil {
		a.writeError(w, err)
		return
	}
	a.log.Infow("session created", "session_id", sess.ID, "subject_id", user.ID, "tenant_id", user.TenantID)
	a.setSessionCookies(w, pair)
	writeJSON(w, http.StatusCreated, map[string]any{
		"principal": toPrincipalResponse(p),
		"expiresAt": pair.Access.ExpiresAt,
	})
}

// sessionCheck is how clients learn their claims; tokens stay opaque to
// them.
func (a *App) sessionCheck(w http.ResponseWriter, r *http.Request) {
	p := authz.PrincipalFrom(r.Context())
	if err := a.sessions.Touch(r.Context(), p.SessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
		a.log.Warnw("session touch failed", "session_id", p.SessionID, "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{"principal": toPrincipalResponse(p)})
}

// refresh rotates the pair for the same session; privileges come back
// freshly resolved, not copied from the presented token.
func (a *App) refresh(w http.ResponseWriter, r *http.Request) {
	raw := refreshTokenFromRequest(r)
	if raw == "" {
		writeProblem(w, http.StatusUnauthorized, "unauthenticated", "Unauthenticated", nil)
		return
	}
	pair, err := a.tokens.Rotate(r.Context(), raw)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.setSessionCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": pair.Access.SessionID,
		"expiresAt": pair.Access.ExpiresAt,
	})
}

// logout accepts whichever token the client still holds: a valid access
// token or, once that has expired, the refresh token.
func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	var sessionID, subjectID string
	if raw := accessTokenFromRequest(r); raw != "" {
		if claims, err := a.tokens.VerifyAccess(r.Context(), raw); err == nil {
			sessionID, subjectID = claims.SessionID, claims.SubjectID
		}
	}
	if sessionID == "" {
		if raw := refreshTokenFromRequest(r); raw != "" {
			if claims, err := a.tokens.VerifyRefresh(r.Context(), raw); err == nil {
				sessionID, subjectID = claims.SessionID, claims.SubjectID
			}
		}
	}
	if sessionID == "" {
		writeProblem(w, http.StatusUnauthorized, "unauthenticated", "Unauthenticated", nil)
		return
	}
	if err := a.sessions.Revoke(r.Context(), sessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
		a.writeError(w, err)
		return
	}
	if err := a.blacklist.Mark(r.Context(), sessionID, a.tokens.AccessTTL()); err != nil {
		a.log.Warnw("blacklist mark failed", "session_id", sessionID, "err", err)
	}
	a.log.Infow("session revoked", "session_id", sessionID, "subject_id", subjectID)
	a.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]any{"revoked": true})
}

func accessTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(middleware.AccessCookie); err == nil && c.Value != "" {
		return c.Value
	}
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
