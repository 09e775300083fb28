package api

import "time"

// Config controls auth API behavior and security defaults.
type Config struct {
	// SessionCookie names the gorilla session holding the caller's state.
	SessionCookie string

	// OAuthStateCookie names the short-lived session holding the OAuth state.
	OAuthStateCookie string
	OAuthStateTTL    time.Duration

	// FrontendURL is where the OAuth callback redirects after login.
	FrontendURL string

	TrustProxy   bool
	MaxBodyBytes int64

	// Failed logins per client IP within LoginIPWindow before throttling.
	LoginIPMax    int
	LoginIPWindow time.Duration

	// Progressive lockout per login identifier.
	LockoutShortThreshold  int
	LockoutShortDuration   time.Duration
	LockoutLongThreshold   int
	LockoutLongDuration    time.Duration
	LockoutSevereThreshold int
	LockoutSevereDuration  time.Duration
}

// DefaultConfig returns safe defaults.
func DefaultConfig() Config {
	return Config{
		SessionCookie:          "tunebox_session",
		OAuthStateCookie:       "tunebox_oauth",
		OAuthStateTTL:          5 * time.Minute,
		FrontendURL:            "http://localhost:8080",
		MaxBodyBytes:           1 << 20, // 1 MiB
		LoginIPMax:             20,
		LoginIPWindow:          5 * time.Minute,
		LockoutShortThreshold:  5,
		LockoutShortDuration:   5 * time.Minute,
		LockoutLongThreshold:   10,
		LockoutLongDuration:    30 * time.Minute,
		LockoutSevereThreshold: 20,
		LockoutSevereDuration:  2 * time.Hour,
	}
}

// withDefaults fills unset fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SessionCookie == "" {
		c.SessionCookie = d.SessionCookie
	}
	if c.OAuthStateCookie == "" {
		c.OAuthStateCookie = d.OAuthStateCookie
	}
	if c.OAuthStateTTL <= 0 {
		c.OAuthStateTTL = d.OAuthStateTTL
	}
	if c.FrontendURL == "" {
		c.FrontendURL = d.FrontendURL
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.LoginIPWindow <= 0 {
		c.LoginIPWindow = d.LoginIPWindow
	}
	return c
}

func (c Config) lockoutTiers() []lockoutTier {
	return []lockoutTier{
		{Threshold: c.LockoutSevereThreshold, Duration: c.LockoutSevereDuration},
		{Threshold: c.LockoutLongThreshold, Duration: c.LockoutLongDuration},
		{Threshold: c.LockoutShortThreshold, Duration: c.LockoutShortDuration},
	}
}
