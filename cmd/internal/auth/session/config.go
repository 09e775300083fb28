package session

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
)

// Backend names accepted by Config.Backend.
const (
	BackendFilesystem = "filesystem"
	BackendCookie     = "cookie"
	BackendRedis      = "redis"
)

// MinSecretBytes is the shortest accepted session secret.
const MinSecretBytes = 32

// Config defines the session cookie and the backend that stores session state.
type Config struct {
	// CookieName names the session cookie.
	CookieName string

	// Secret signs session cookies (and server-side session payloads).
	Secret string

	// Backend selects where state lives: filesystem, cookie or redis.
	Backend string

	// Dir holds filesystem sessions. Empty means os.TempDir().
	Dir string

	MaxAge   time.Duration
	Secure   bool
	SameSite http.SameSite
}

// DefaultConfig returns the development baseline. Secret must still be set.
func DefaultConfig() Config {
	return Config{
		CookieName: "tunebox_session",
		Backend:    BackendFilesystem,
		MaxAge:     7 * 24 * time.Hour,
		SameSite:   http.SameSiteLaxMode,
	}
}

// Validate returns ErrConfig for unusable settings.
func (c Config) Validate() error {
	if strings.TrimSpace(c.CookieName) == "" {
		return fmt.Errorf("%w: cookie name is required", ErrConfig)
	}
	if len(c.Secret) < MinSecretBytes {
		return fmt.Errorf("%w: secret must be at least %d bytes", ErrConfig, MinSecretBytes)
	}
	if c.MaxAge < time.Second {
		return fmt.Errorf("%w: max age must be at least 1s", ErrConfig)
	}
	switch c.Backend {
	case BackendFilesystem, BackendCookie, BackendRedis:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrConfig, c.Backend)
	}
	if c.SameSite == http.SameSiteNoneMode && !c.Secure {
		return fmt.Errorf("%w: SameSite=None requires secure cookies", ErrConfig)
	}
	return nil
}

// Options returns the gorilla cookie options for c.
func (c Config) Options() *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(c.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
}

// ParseSameSite maps lax, strict or none to an http.SameSite value.
func ParseSameSite(s string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("%w: unknown SameSite mode %q", ErrConfig, s)
	}
}
