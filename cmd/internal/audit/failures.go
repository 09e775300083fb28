package audit

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Failures are the timestamps of recent failed logins, newest first.
type Failures struct {
	ByIP         []time.Time
	ByIdentifier []time.Time
}

// FailureSource lists failed logins since a cutoff.
type FailureSource interface {
	LoginFailures(ctx context.Context, ip, identifier string, since time.Time) (Failures, error)
}

// NormalizeIdentifier is the key failed logins are grouped by.
func NormalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Memory keeps the most recent events in process memory.
// It is a Sink and a FailureSource.
type Memory struct {
	mu     sync.Mutex
	events []Event
	max    int
	now    func() time.Time
}

// NewMemory returns a sink retaining at most max events (default 10000).
func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 10000
	}
	return &Memory{max: max, now: time.Now}
}

func (m *Memory) Record(_ context.Context, ev Event) {
	if ev.At.IsZero() {
		ev.At = m.now()
	}
	ev.Identifier = NormalizeIdentifier(ev.Identifier)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	if over := len(m.events) - m.max; over > 0 {
		m.events = append(m.events[:0:0], m.events[over:]...)
	}
}

// Events returns a copy of the retained events, oldest first.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func (m *Memory) LoginFailures(_ context.Context, ip, identifier string, since time.Time) (Failures, error) {
	ip = strings.TrimSpace(ip)
	identifier = NormalizeIdentifier(identifier)

	m.mu.Lock()
	defer m.mu.Unlock()

	var f Failures
	for _, ev := range m.events {
		if ev.Action != ActionLoginFailed || ev.At.Before(since) {
			continue
		}
		if ip != "" && ev.IP == ip {
			f.ByIP = append(f.ByIP, ev.At)
		}
		if identifier != "" && ev.Identifier == identifier {
			f.ByIdentifier = append(f.ByIdentifier, ev.At)
		}
	}
	// Events may be recorded out of time order.
	slices.SortFunc(f.ByIP, newestFirst)
	slices.SortFunc(f.ByIdentifier, newestFirst)
	return f, nil
}

func newestFirst(a, b time.Time) int { return b.Compare(a) }

// LoginFailures reads failed logins from the audit table.
func (s *PostgresSink) LoginFailures(ctx context.Context, ip, identifier string, since time.Time) (Failures, error) {
	var f Failures

	if ip = strings.TrimSpace(ip); ip != "" {
		ts, err := s.failureTimes(ctx, `ip = $2::inet`, ip, since)
		if err != nil {
			return Failures{}, err
		}
		f.ByIP = ts
	}
	if identifier = NormalizeIdentifier(identifier); identifier != "" {
		ts, err := s.failureTimes(ctx, `lower(meta->>'identifier') = $2`, identifier, since)
		if err != nil {
			return Failures{}, err
		}
		f.ByIdentifier = ts
	}
	return f, nil
}

func (s *PostgresSink) failureTimes(ctx context.Context, where string, arg string, since time.Time) ([]time.Time, error) {
	if s.query == nil {
		return nil, fmt.Errorf("audit: postgres sink has no query access")
	}
	rows, err := s.query.Query(ctx,
		`SELECT created_at FROM `+s.table+`
		 WHERE action = $1 AND `+where+` AND created_at >= $3
		 ORDER BY created_at DESC
		 LIMIT 100`,
		ActionLoginFailed, arg, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("audit: login failures: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("audit: login failures: %w", err)
		}
		out = append(out, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: login failures: %w", err)
	}
	return out, nil
}
