package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"tunebox/cmd/internal/auth/api"
	"tunebox/cmd/internal/auth/oauth"
	"tunebox/cmd/internal/auth/session"
)

// EnvPrefix is prepended to every variable read by LoadConfig.
const EnvPrefix = "TUNEBOX_"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR" envDefault:"0.0.0.0:5000"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogColor  bool   `env:"LOG_COLOR"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`
	MaxBodyBytes      int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
	TrustProxy        bool          `env:"TRUST_PROXY"`

	StorePath       string `env:"STORE_PATH" envDefault:"data/database.json"`
	StoreStrictRead bool   `env:"STORE_STRICT_READ"`

	SessionSecret  string        `env:"SESSION_SECRET"`
	SessionBackend string        `env:"SESSION_BACKEND" envDefault:"filesystem"`
	SessionDir     string        `env:"SESSION_DIR"`
	SessionMaxAge  time.Duration `env:"SESSION_MAX_AGE" envDefault:"168h"`
	CookieName     string        `env:"SESSION_COOKIE" envDefault:"tunebox_session"`
	CookieSecure   bool          `env:"COOKIE_SECURE"`
	CookieSameSite string        `env:"COOKIE_SAMESITE" envDefault:"lax"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	// Postgres only holds the audit trail; users stay in the JSON file.
	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"0"`
	DBSchema    string `env:"DB_SCHEMA" envDefault:"tunebox"`

	// If true, /readyz returns 503 unless the database is configured and reachable.
	ReadinessRequireDB bool `env:"READINESS_REQUIRE_DB"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
	FrontendURL        string `env:"FRONTEND_URL" envDefault:"http://localhost:8080"`

	LoginIPMax             int           `env:"LOGIN_IP_MAX" envDefault:"20"`
	LoginIPWindow          time.Duration `env:"LOGIN_IP_WINDOW" envDefault:"5m"`
	LockoutShortThreshold  int           `env:"LOCKOUT_SHORT_THRESHOLD" envDefault:"5"`
	LockoutShortDuration   time.Duration `env:"LOCKOUT_SHORT_DURATION" envDefault:"5m"`
	LockoutLongThreshold   int           `env:"LOCKOUT_LONG_THRESHOLD" envDefault:"10"`
	LockoutLongDuration    time.Duration `env:"LOCKOUT_LONG_DURATION" envDefault:"30m"`
	LockoutSevereThreshold int           `env:"LOCKOUT_SEVERE_THRESHOLD" envDefault:"20"`
	LockoutSevereDuration  time.Duration `env:"LOCKOUT_SEVERE_DURATION" envDefault:"2h"`

	// AuditMemoryMax bounds the in-process failure history used without a database.
	AuditMemoryMax int `env:"AUDIT_MEMORY_MAX" envDefault:"10000"`
}

// LoadConfig loads Config from TUNEBOX_* environment variables with defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field rules that tags cannot express.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "json", "pretty":
	default:
		return fmt.Errorf("%sLOG_FORMAT: unknown format %q", EnvPrefix, c.LogFormat)
	}
	if strings.TrimSpace(c.StorePath) == "" {
		return errors.New(EnvPrefix + "STORE_PATH is required")
	}
	if c.SessionBackend == session.BackendRedis && strings.TrimSpace(c.RedisAddr) == "" {
		return errors.New(EnvPrefix + "REDIS_ADDR is required for the redis session backend")
	}
	if _, err := c.SessionConfig(); err != nil {
		return err
	}
	return nil
}

// SessionConfig derives the session package configuration.
func (c Config) SessionConfig() (session.Config, error) {
	sameSite, err := session.ParseSameSite(c.CookieSameSite)
	if err != nil {
		return session.Config{}, err
	}
	sc := session.Config{
		CookieName: c.CookieName,
		Secret:     c.SessionSecret,
		Backend:    strings.ToLower(strings.TrimSpace(c.SessionBackend)),
		Dir:        c.SessionDir,
		MaxAge:     c.SessionMaxAge,
		Secure:     c.CookieSecure,
		SameSite:   sameSite,
	}
	if err := sc.Validate(); err != nil {
		return session.Config{}, err
	}
	return sc, nil
}

// APIConfig derives the HTTP auth handler configuration.
func (c Config) APIConfig() api.Config {
	ac := api.DefaultConfig()
	ac.SessionCookie = c.CookieName
	ac.FrontendURL = c.FrontendURL
	ac.TrustProxy = c.TrustProxy
	ac.MaxBodyBytes = c.MaxBodyBytes
	ac.LoginIPMax = c.LoginIPMax
	ac.LoginIPWindow = c.LoginIPWindow
	ac.LockoutShortThreshold = c.LockoutShortThreshold
	ac.LockoutShortDuration = c.LockoutShortDuration
	ac.LockoutLongThreshold = c.LockoutLongThreshold
	ac.LockoutLongDuration = c.LockoutLongDuration
	ac.LockoutSevereThreshold = c.LockoutSevereThreshold
	ac.LockoutSevereDuration = c.LockoutSevereDuration
	return ac
}

// OAuthConfig derives the Google provider configuration.
func (c Config) OAuthConfig() oauth.Config {
	return oauth.Config{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		RedirectURL:  c.GoogleRedirectURL,
	}
}
