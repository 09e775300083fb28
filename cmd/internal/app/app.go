// Package app wires the tunebox server runtime: config, logging, storage,
// sessions and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"tunebox/cmd/identity"
	"tunebox/cmd/internal/audit"
	"tunebox/cmd/internal/auth/api"
	"tunebox/cmd/internal/auth/oauth"
	"tunebox/cmd/internal/auth/session"
	"tunebox/cmd/security/password"
)

// App is the tunebox server runtime. It owns the external connections
// and the HTTP handler built on top of them.
type App struct {
	cfg Config
	log Logger

	db    *pgxpool.Pool
	redis *redis.Client

	metrics *Metrics
	store   *identity.FileStore
	auth    *api.Handler
	handler http.Handler
}

// New constructs a fully wired App from config.
// The database and Redis are only dialed when configured.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogColor)
	}
	a := &App{cfg: cfg, log: log, metrics: NewMetrics()}

	ok := false
	defer func() {
		if !ok {
			a.close()
		}
	}()

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	codec, err := identity.NewPasswordCodec(pwCfg)
	if err != nil {
		return nil, err
	}

	a.store, err = identity.NewFileStore(identity.FileStoreOptions{
		Path:       cfg.StorePath,
		StrictRead: cfg.StoreStrictRead,
		Hasher:     codec,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	resolver, err := identity.NewResolver(newInstrumentedStore(a.store, a.metrics), codec, log)
	if err != nil {
		return nil, err
	}
	svc, err := session.NewService(resolver, log)
	if err != nil {
		return nil, err
	}

	sessCfg, err := cfg.SessionConfig()
	if err != nil {
		return nil, err
	}
	if sessCfg.Backend == session.BackendRedis {
		if a.redis, err = NewRedisClient(ctx, cfg); err != nil {
			return nil, err
		}
	}
	var rdb redis.UniversalClient
	if a.redis != nil {
		rdb = a.redis
	}
	sessStore, err := session.NewStore(sessCfg, rdb)
	if err != nil {
		return nil, err
	}

	sink, failures, err := a.newAudit(ctx)
	if err != nil {
		return nil, err
	}
	opts := []api.HandlerOption{api.WithAudit(sink), api.WithLoginThrottle(failures)}

	if oc := cfg.OAuthConfig(); oc.Enabled() {
		google, err := oauth.NewGoogle(oc)
		if err != nil {
			return nil, err
		}
		opts = append(opts, api.WithOAuth(google))
	} else {
		log.Info("oauth.google.disabled")
	}

	if a.auth, err = api.NewHandler(log, cfg.APIConfig(), svc, sessStore, opts...); err != nil {
		return nil, err
	}
	a.handler = a.routes()

	log.Info("app.ready",
		"store_path", a.store.Path(),
		"session_backend", sessCfg.Backend,
		"audit_db", a.db != nil,
	)
	ok = true
	return a, nil
}

// newAudit builds the audit sink and the login failure source.
// Postgres backs both when configured; otherwise an in-memory history does.
func (a *App) newAudit(ctx context.Context) (audit.Sink, audit.FailureSource, error) {
	logSink := audit.LogSink{Log: a.log}

	if a.cfg.DatabaseURL == "" {
		a.log.Info("db.disabled.memory_audit")
		mem := audit.NewMemory(a.cfg.AuditMemoryMax)
		return audit.MultiSink{logSink, mem}, mem, nil
	}

	pool, err := NewDBPool(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	a.db = pool

	pg, err := audit.NewPostgresSink(pool, a.cfg.DBSchema, a.log)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, nil, err
	}
	a.log.Info("db.enabled.postgres_audit", "schema", a.cfg.DBSchema)
	return audit.MultiSink{logSink, pg}, pg, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		a.close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
	}
	a.close()

	a.log.Info("server.stopped")
	return err
}

func (a *App) close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Error("redis.close.fail", "err", err)
		}
		a.redis = nil
	}
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
