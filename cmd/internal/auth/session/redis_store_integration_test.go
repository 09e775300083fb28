package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("TUNEBOX_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TUNEBOX_TEST_REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())

	cfg := DefaultConfig()
	cfg.Secret = strings.Repeat("r", MinSecretBytes)
	cfg.Backend = BackendRedis

	store, err := NewStore(cfg, rdb)
	require.NoError(t, err)
	rs, ok := store.(*RedisStore)
	require.True(t, ok)
	require.NoError(t, rs.Ping(context.Background()))

	want := State{UserID: "u1", Username: "alice01", Email: "a@x.io"}
	cookie := roundTrip(t, store, nil, func(s *GorillaSlot) {
		require.NoError(t, s.Replace(want))
	})
	require.NotNil(t, cookie)

	roundTrip(t, store, cookie, func(s *GorillaSlot) {
		got, ok := s.Load()
		require.True(t, ok)
		assert.Equal(t, want, got)
		require.NoError(t, s.Clear())
	})

	roundTrip(t, store, cookie, func(s *GorillaSlot) {
		_, ok := s.Load()
		assert.False(t, ok)
	})
}

func TestRedisStore_NoCookieIsNewSession(t *testing.T) {
	rs := NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), []byte(strings.Repeat("r", 32)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := rs.New(req, testCookie)
	require.NoError(t, err)
	assert.True(t, sess.IsNew)
	assert.Empty(t, sess.ID)
	assert.Equal(t, 86400*30, sess.Options.MaxAge)
}
