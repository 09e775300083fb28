package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		if got := parseLogLevel(tc.in); got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewLogger_Formats(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info", "json", false).Info("server.start", "addr", ":5000")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("json format: %v (%s)", err, buf.String())
	}
	if line["msg"] != "server.start" || line["source"] == nil {
		t.Fatalf("unexpected json line: %v", line)
	}

	buf.Reset()
	newLogger(&buf, "info", "pretty", false).Info("server.start", "addr", ":5000")
	if got := buf.String(); !strings.Contains(got, "INFO  server.start addr=:5000") {
		t.Fatalf("pretty line=%q", got)
	}
}
