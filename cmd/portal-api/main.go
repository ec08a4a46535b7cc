package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"portalcore/internal/directory"
	"portalcore/internal/httpapi"
	"portalcore/internal/query"
	"portalcore/internal/session"
	"portalcore/internal/token"
	"portalcore/pkg/config"
	"portalcore/pkg/db"
	"portalcore/pkg/logger"
	"portalcore/pkg/tenants"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var prov tenants.Provider
	var sessions session.Store
	var dir directory.Directory
	if pool != nil {
		if err := tenants.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("tenant schema", "err", err)
		}
		if err := session.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("session schema", "err", err)
		}
		if err := directory.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("directory schema", "err", err)
		}
		_ = tenants.SeedFromEnv(context.Background(), pool, os.Getenv("TENANT_SEED_JSON"))
		prov = tenants.NewPostgresProvider(pool, log)
		sessions = session.NewPostgresStore(pool)
		dir = directory.NewPostgresDirectory(pool, log)
	} else {
		prov = tenants.NewMemoryProviderFromEnv(log)
		sessions = session.NewMemoryStore()
		dir = devDirectory(log)
	}

	tokens := token.NewService(cfg, sessions, dir, log)
	blacklist := session.NewBlacklist(rdb)
	registry := query.DefaultRegistry()
	runner := query.NewExecutor(registry, pool, cfg.StatementTimeout, log)

	app := httpapi.New(cfg, log, tokens, sessions, blacklist, dir, registry, runner, prov)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: app.Handler()}
	go func() {
		log.Infow("portal-api listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("portal-api stopped")
}

// devDirectory seeds a single in-memory user for local bring-up when no
// database is configured. Credentials come from env so nothing is baked in.
func devDirectory(log logger.Sugared) directory.Directory {
	dir := directory.NewMemoryDirectory()
	email := os.Getenv("PORTAL_DEV_EMAIL")
	pass := os.Getenv("PORTAL_DEV_PASSWORD")
	if email == "" || pass == "" {
		log.Warnw("no dev user seeded; set PORTAL_DEV_EMAIL and PORTAL_DEV_PASSWORD")
		return dir
	}
	u := directory.User{
		ID:          uuid.NewString(),
		TenantID:    "00000000-0000-0000-0000-000000000001",
		Email:       email,
		DisplayName: "Dev User",
		Roles:       []string{"admin"},
		Permissions: []string{"*"},
	}
	if err := dir.AddUser(u, pass); err != nil {
		log.Fatalw("seed dev user", "err", err)
	}
	log.Infow("dev user seeded", "email", email)
	return dir
}
