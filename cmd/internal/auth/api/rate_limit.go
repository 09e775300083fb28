package api

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

type lockoutTier struct {
	Threshold int
	Duration  time.Duration
}

// checkLoginThrottle reports whether a login from ip for identifier must be refused.
func (h *Handler) checkLoginThrottle(ctx context.Context, ip, identifier string, now time.Time) (bool, time.Duration, error) {
	if h.failures == nil {
		return false, 0, nil
	}

	tiers := h.cfg.lockoutTiers()
	lookback := h.cfg.LoginIPWindow
	for _, t := range tiers {
		if t.Duration > lookback {
			lookback = t.Duration
		}
	}

	f, err := h.failures.LoginFailures(ctx, ip, identifier, now.Add(-lookback))
	if err != nil {
		return false, 0, err
	}

	if blocked, retry := evaluateWindowThrottle(now, f.ByIP, h.cfg.LoginIPMax, h.cfg.LoginIPWindow); blocked {
		return true, retry, nil
	}
	if blocked, retry := evaluateProgressiveLockout(now, f.ByIdentifier, tiers); blocked {
		return true, retry, nil
	}
	return false, 0, nil
}

// evaluateWindowThrottle blocks once max failures fall inside window.
// The retry delay runs until the oldest in-window failure ages out.
func evaluateWindowThrottle(now time.Time, failures []time.Time, max int, window time.Duration) (bool, time.Duration) {
	if max <= 0 || window <= 0 {
		return false, 0
	}
	cut := now.Add(-window)

	count := 0
	var oldest time.Time
	for _, at := range failures {
		if at.Before(cut) {
			continue
		}
		count++
		if oldest.IsZero() || at.Before(oldest) {
			oldest = at
		}
	}
	if count < max {
		return false, 0
	}
	retry := oldest.Add(window).Sub(now)
	if retry <= 0 {
		return false, 0
	}
	return true, retry
}

// evaluateProgressiveLockout applies the first tier (in order) whose threshold
// is met within its duration. The lockout runs from the latest failure.
func evaluateProgressiveLockout(now time.Time, failures []time.Time, tiers []lockoutTier) (bool, time.Duration) {
	for _, tier := range tiers {
		if tier.Threshold <= 0 || tier.Duration <= 0 {
			continue
		}
		cut := now.Add(-tier.Duration)

		count := 0
		var latest time.Time
		for _, at := range failures {
			if at.Before(cut) {
				continue
			}
			count++
			if at.After(latest) {
				latest = at
			}
		}
		if count < tier.Threshold {
			continue
		}
		if retry := latest.Add(tier.Duration).Sub(now); retry > 0 {
			return true, retry
		}
	}
	return false, 0
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64(retryAfter / time.Second)
		if retryAfter%time.Second != 0 {
			secs++
		}
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later")
}
