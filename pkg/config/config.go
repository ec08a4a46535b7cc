// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string
	HTTPAddr string

	// Session tokens. The signing secret is resolved lazily by the token
	// service; it is carried here as an opaque string and validated on
	// first use, not at load time.
	SigningSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	// Tenant bootstrap for pre-authentication flows.
	DefaultTenantID string

	// Cookie transport.
	CookieDomain string
	CookieSecure bool

	// Query execution.
	StatementTimeout time.Duration

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

// fileOverlay mirrors the subset of Config that may be supplied via an
// optional YAML file (PORTAL_CONFIG_FILE). Env vars win over the file.
type fileOverlay struct {
	HTTPAddr         string `yaml:"http_addr"`
	DefaultTenantID  string `yaml:"default_tenant_id"`
	CookieDomain     string `yaml:"cookie_domain"`
	StatementTimeout string `yaml:"statement_timeout"`
	RedisURL         string `yaml:"redis_url"`
	DatabaseURL      string `yaml:"database_url"`
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:              env("PORTAL_ENV", "dev"),
		HTTPAddr:         env("PORTAL_HTTP_ADDR", ":8080"),
		SigningSecret:    env("SESSION_SIGNING_SECRET", ""),
		AccessTTL:        envDur("ACCESS_TOKEN_TTL_MIN", 15) * time.Minute,
		RefreshTTL:       envDur("REFRESH_TOKEN_TTL_HOURS", 168) * time.Hour,
		DefaultTenantID:  env("DEFAULT_TENANT_ID", ""),
		CookieDomain:     env("COOKIE_DOMAIN", ""),
		CookieSecure:     envBool("COOKIE_SECURE", true),
		StatementTimeout: envDur("QUERY_STATEMENT_TIMEOUT_SEC", 10) * time.Second,
		RedisURL:         env("REDIS_URL", ""),
		DatabaseURL:      env("DATABASE_URL", ""),
	}
	if path := os.Getenv("PORTAL_CONFIG_FILE"); path != "" {
		applyFile(&cfg, path)
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set — using in-memory stores for dev")
	}
	return cfg
}

// applyFile overlays values from a YAML file for fields the environment
// left unset. A missing or unreadable file is fatal: pointing at a config
// file and silently ignoring it hides operator mistakes.
func applyFile(cfg *Config, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("config file %s: %v", path, err)
	}
	var f fileOverlay
	if err := yaml.Unmarshal(raw, &f); err != nil {
		log.Fatalf("config file %s: %v", path, err)
	}
	if os.Getenv("PORTAL_HTTP_ADDR") == "" && f.HTTPAddr != "" {
		cfg.HTTPAddr = f.HTTPAddr
	}
	if os.Getenv("DEFAULT_TENANT_ID") == "" && f.DefaultTenantID != "" {
		cfg.DefaultTenantID = f.DefaultTenantID
	}
	if os.Getenv("COOKIE_DOMAIN") == "" && f.CookieDomain != "" {
		cfg.CookieDomain = f.CookieDomain
	}
	if os.Getenv("QUERY_STATEMENT_TIMEOUT_SEC") == "" && f.StatementTimeout != "" {
		if d, err := time.ParseDuration(f.StatementTimeout); err == nil {
			cfg.StatementTimeout = d
		}
	}
	if os.Getenv("REDIS_URL") == "" && f.RedisURL != "" {
		cfg.RedisURL = f.RedisURL
	}
	if os.Getenv("DATABASE_URL") == "" && f.DatabaseURL != "" {
		cfg.DatabaseURL = f.DatabaseURL
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
