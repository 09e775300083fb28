package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_LoginFailures(t *testing.T) {
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	m := NewMemory(0)
	ctx := context.Background()

	m.Record(ctx, Event{Action: ActionLoginFailed, Identifier: "Alice01", IP: "10.0.0.1", At: now.Add(-1 * time.Minute)})
	m.Record(ctx, Event{Action: ActionLoginFailed, Identifier: "bob01", IP: "10.0.0.1", At: now.Add(-2 * time.Minute)})
	m.Record(ctx, Event{Action: ActionLoginFailed, Identifier: "alice01", IP: "10.0.0.2", At: now.Add(-10 * time.Minute)})
	m.Record(ctx, Event{Action: ActionLoginSuccess, Identifier: "alice01", IP: "10.0.0.1", At: now})

	f, err := m.LoginFailures(ctx, "10.0.0.1", " ALICE01 ", now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{now.Add(-1 * time.Minute)}, f.ByIdentifier)
	assert.Equal(t, []time.Time{now.Add(-1 * time.Minute), now.Add(-2 * time.Minute)}, f.ByIP)

	f, err = m.LoginFailures(ctx, "", "alice01", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, f.ByIdentifier, 2)
	assert.Empty(t, f.ByIP)
}

func TestMemory_LoginFailuresSortedByTime(t *testing.T) {
	now := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)
	m := NewMemory(0)
	ctx := context.Background()

	for _, off := range []time.Duration{-3, -1, -4, -2} {
		m.Record(ctx, Event{Action: ActionLoginFailed, Identifier: "carol01", IP: "10.0.0.9", At: now.Add(off * time.Minute)})
	}

	f, err := m.LoginFailures(ctx, "10.0.0.9", "carol01", now.Add(-time.Hour))
	require.NoError(t, err)
	want := []time.Time{
		now.Add(-1 * time.Minute),
		now.Add(-2 * time.Minute),
		now.Add(-3 * time.Minute),
		now.Add(-4 * time.Minute),
	}
	assert.Equal(t, want, f.ByIP)
	assert.Equal(t, want, f.ByIdentifier)
}

func TestMemory_Bounded(t *testing.T) {
	m := NewMemory(3)
	for i := 0; i < 5; i++ {
		m.Record(context.Background(), Event{Action: ActionGuest, UserID: string(rune('a' + i))})
	}

	events := m.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "c", events[0].UserID)
	assert.Equal(t, "e", events[2].UserID)
}
