// Package audit records security-relevant account events.
//
// Sinks never fail the caller: a sink that cannot record an event logs the
// failure and drops the event.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Actions recorded by the auth API.
const (
	ActionSignupSuccess    = "auth.signup.success"
	ActionSignupFailed     = "auth.signup.failed"
	ActionLoginSuccess     = "auth.login.success"
	ActionLoginFailed      = "auth.login.failed"
	ActionLogout           = "auth.logout"
	ActionGuest            = "auth.guest"
	ActionFederatedSuccess = "auth.federated.success"
	ActionFederatedFailed  = "auth.federated.failed"
	ActionProfileUpdated   = "auth.profile.updated"
	ActionPasswordChanged  = "auth.password.changed"
)

// Event is one audit record. Empty fields are stored as NULL.
type Event struct {
	Action     string
	UserID     string
	Identifier string
	Reason     string
	IP         string
	UserAgent  string
	At         time.Time
}

// Sink receives audit events.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// LogSink writes events to a slog logger.
type LogSink struct {
	Log *slog.Logger
}

func (s LogSink) Record(ctx context.Context, ev Event) {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}

	attrs := []any{"action", ev.Action}
	for _, kv := range [][2]string{
		{"user_id", ev.UserID},
		{"identifier", ev.Identifier},
		{"reason", ev.Reason},
		{"ip", ev.IP},
		{"user_agent", ev.UserAgent},
	} {
		if kv[1] != "" {
			attrs = append(attrs, kv[0], kv[1])
		}
	}
	log.InfoContext(ctx, "audit.event", attrs...)
}

// MultiSink fans each event out to every sink in order.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, ev Event) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, ev)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Record(context.Context, Event) {}
