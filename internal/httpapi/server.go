// Package httpapi is the HTTP binding for the session lifecycle and the
// assistant query endpoint.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"portalcore/internal/directory"
	"portalcore/internal/query"
	"portalcore/internal/session"
	"portalcore/internal/token"
	"portalcore/pkg/config"
	"portalcore/pkg/middleware"
	"portalcore/pkg/tenants"
)

type App struct {
	cfg       config.Config
	log       *zap.SugaredLogger
	tokens    *token.Service
	sessions  session.Store
	blacklist *session.Blacklist
	dir       directory.Directory
	registry  *query.Registry
	runner    query.Runner
	prov      tenants.Provider
}

func New(cfg config.Config, log *zap.SugaredLogger, tokens *token.Service, sessions session.Store, blacklist *session.Blacklist, dir directory.Directory, registry *query.Registry, runner query.Runner, prov tenants.Provider) *App {
	return &App{
		cfg: cfg, log: log, tokens: tokens, sessions: sessions,
		blacklist: blacklist, dir: dir, registry: registry, runner: runner, prov: prov,
	}
}

// Handler builds the HTTP handler with routes and middleware.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(a.log))
	r.Use(middleware.Tracing(a.cfg))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	// Pre-authentication flows: login and rotation carry no verified
	// access token; the tenant selector only matters until one exists.
	r.Group(func(pub chi.Router) {
		pub.Use(middleware.TenantSelector(a.prov, a.cfg.DefaultTenantID))
		pub.Post("/v1/session", a.login)
		pub.Post("/v1/session/refresh", a.refresh)
		pub.Delete("/v1/session", a.logout)
	})

	r.Group(func(priv chi.Router) {
		priv.Use(middleware.SessionAuth(a.tokens, a.blacklist, a.log))
		priv.Get("/v1/session", a.sessionCheck)
		priv.Get("/v1/query/templates", a.listTemplates)
		priv.Post("/v1/query", a.runQuery)
	})

	return r
}
