// internal/httpapi/cookies.go
package httpapi

import (
	"net/http"

	"portalcore/internal/token"
	"portalcore/pkg/middleware"
)

// RefreshCookie is path-restricted to the session endpoints so the
// long-lived token only travels when rotating or terminating a session.
const RefreshCookie = "portal_refresh"

func (a *App) setSessionCookies(w http.ResponseWriter, pair token.Pair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   int(a.tokens.AccessTTL().Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    pair.RefreshToken,
		Path:     "/v1/session",
		Domain:   a.cfg.CookieDomain,
		MaxAge:   int(a.tokens.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   a.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (a *App) clearSessionCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name: middleware.AccessCookie, Value: "", Path: "/", Domain: a.cfg.CookieDomain,
		MaxAge: -1, HttpOnly: true, Secure: a.cfg.CookieSecure, SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name: RefreshCookie, Value: "", Path: "/v1/session", Domain: a.cfg.CookieDomain,
		MaxAge: -1, HttpOnly: true, Secure: a.cfg.CookieSecure, SameSite: http.SameSiteStrictMode,
	})
}
