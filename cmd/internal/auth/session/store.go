package session

import (
	"errors"
	"fmt"
	"os"

	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

// NewStore builds the gorilla store selected by cfg.Backend.
// rdb is required only for the redis backend.
func NewStore(cfg Config, rdb redis.UniversalClient) (sessions.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	secret := []byte(cfg.Secret)
	opts := cfg.Options()

	switch cfg.Backend {
	case BackendCookie:
		s := sessions.NewCookieStore(secret)
		s.Options = opts
		s.MaxAge(opts.MaxAge)
		return s, nil

	case BackendRedis:
		if rdb == nil {
			return nil, errors.New("session: redis backend requires a redis client")
		}
		s := NewRedisStore(rdb, secret)
		s.Options = opts
		s.MaxAge(opts.MaxAge)
		return s, nil

	default:
		dir := cfg.Dir
		if dir != "" {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("session: create dir: %w", err)
			}
		}
		s := sessions.NewFilesystemStore(dir, secret)
		s.Options = opts
		s.MaxAge(opts.MaxAge)
		return s, nil
	}
}
