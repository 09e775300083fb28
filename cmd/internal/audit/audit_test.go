package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, f.err
}

type recordingSink struct{ events []Event }

func (r *recordingSink) Record(_ context.Context, ev Event) { r.events = append(r.events, ev) }

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := LogSink{Log: slog.New(slog.NewJSONHandler(&buf, nil))}

	sink.Record(context.Background(), Event{Action: ActionLoginFailed, Identifier: "alice01", Reason: "invalid_credentials"})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit.event", line["msg"])
	assert.Equal(t, ActionLoginFailed, line["action"])
	assert.Equal(t, "alice01", line["identifier"])
	assert.NotContains(t, line, "user_id")
}

func TestMultiSink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	MultiSink{a, nil, b}.Record(context.Background(), Event{Action: ActionLogout})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestPostgresSink_Record(t *testing.T) {
	db := &fakeExecer{}
	sink, err := NewPostgresSink(db, "", slog.Default())
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sink.Record(context.Background(), Event{
		Action:     ActionLoginSuccess,
		UserID:     "u1",
		Identifier: "a@x.io",
		IP:         "203.0.113.9",
		UserAgent:  " curl/8 ",
		At:         at,
	})

	require.Len(t, db.calls, 1)
	call := db.calls[0]
	assert.Contains(t, call.sql, `INSERT INTO "tunebox"."audit_log"`)
	require.Len(t, call.args, 6)
	assert.Equal(t, ActionLoginSuccess, call.args[0])
	assert.Equal(t, "u1", call.args[1])
	assert.Equal(t, at, call.args[2])
	assert.Equal(t, "203.0.113.9", call.args[3])
	assert.Equal(t, "curl/8", call.args[4])

	meta, ok := call.args[5].(*string)
	require.True(t, ok)
	assert.JSONEq(t, `{"identifier":"a@x.io"}`, *meta)
}

func TestPostgresSink_RecordNulls(t *testing.T) {
	db := &fakeExecer{}
	sink, err := NewPostgresSink(db, "audit", nil)
	require.NoError(t, err)

	sink.Record(context.Background(), Event{Action: ActionGuest, IP: "not-an-ip"})

	require.Len(t, db.calls, 1)
	args := db.calls[0].args
	assert.Nil(t, args[1])
	assert.Nil(t, args[3])
	assert.Nil(t, args[4])
	assert.Nil(t, args[5].(*string))
}

func TestPostgresSink_SkipsEmptyActionAndSwallowsErrors(t *testing.T) {
	db := &fakeExecer{err: errors.New("connection refused")}
	var buf bytes.Buffer
	sink, err := NewPostgresSink(db, "", slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, err)

	sink.Record(context.Background(), Event{Action: "  "})
	assert.Empty(t, db.calls)

	sink.Record(context.Background(), Event{Action: ActionLogout})
	assert.Len(t, db.calls, 1)
	assert.True(t, strings.Contains(buf.String(), "audit.insert.fail"))
}

func TestPostgresSink_EnsureSchemaQuotesIdentifiers(t *testing.T) {
	db := &fakeExecer{}
	sink, err := NewPostgresSink(db, `odd"name`, nil)
	require.NoError(t, err)

	require.NoError(t, sink.EnsureSchema(context.Background()))
	require.Len(t, db.calls, 2)
	assert.Contains(t, db.calls[0].sql, `"odd""name"`)
	assert.Contains(t, db.calls[1].sql, `"odd""name"."audit_log"`)
}
