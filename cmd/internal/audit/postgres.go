package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultSchema holds the audit table when none is configured.
const DefaultSchema = "tunebox"

// Execer is the subset of *pgxpool.Pool the sink needs to write.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Querier is the subset of *pgxpool.Pool used to read failed logins.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSink inserts events into <schema>.audit_log.
type PostgresSink struct {
	db     Execer
	query  Querier
	log    *slog.Logger
	schema string
	table  string
	now    func() time.Time
}

// NewPostgresSink returns a sink writing to schema.audit_log through db.
// When db also implements Querier (as *pgxpool.Pool does) the sink is a FailureSource.
func NewPostgresSink(db Execer, schema string, log *slog.Logger) (*PostgresSink, error) {
	if db == nil {
		return nil, errors.New("audit: postgres sink requires a database")
	}
	schema = strings.TrimSpace(schema)
	if schema == "" {
		schema = DefaultSchema
	}
	if log == nil {
		log = slog.Default()
	}
	q, _ := db.(Querier)
	return &PostgresSink{
		db:     db,
		query:  q,
		log:    log,
		schema: pgx.Identifier{schema}.Sanitize(),
		table:  pgx.Identifier{schema, "audit_log"}.Sanitize(),
		now:    time.Now,
	}, nil
}

// EnsureSchema creates the schema and table when missing.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, s.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         bigserial PRIMARY KEY,
			action     text        NOT NULL,
			user_id    text,
			created_at timestamptz NOT NULL DEFAULT now(),
			ip         inet,
			user_agent text,
			meta       jsonb
		)`, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("audit: ensure schema: %w", err)
		}
	}
	return nil
}

// Record inserts ev. Failures are logged, never returned.
func (s *PostgresSink) Record(ctx context.Context, ev Event) {
	action := strings.TrimSpace(ev.Action)
	if action == "" {
		return
	}

	at := ev.At
	if at.IsZero() {
		at = s.now()
	}

	var ipVal any
	if ip := net.ParseIP(strings.TrimSpace(ev.IP)); ip != nil {
		ipVal = ip.String()
	}

	meta := map[string]string{}
	if v := strings.TrimSpace(ev.Identifier); v != "" {
		meta["identifier"] = v
	}
	if v := strings.TrimSpace(ev.Reason); v != "" {
		meta["reason"] = v
	}
	var metaVal *string
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			m := string(b)
			metaVal = &m
		}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO `+s.table+` (action, user_id, created_at, ip, user_agent, meta)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb)`,
		action, trimOrNil(ev.UserID), at.UTC(), ipVal, trimOrNil(ev.UserAgent), metaVal)
	if err != nil {
		s.log.Error("audit.insert.fail", "err", err, "action", action)
	}
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}
