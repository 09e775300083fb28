package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "tunebox_session"

func testStore(t *testing.T, backend string) sessions.Store {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Secret = strings.Repeat("k", MinSecretBytes)
	cfg.Backend = backend
	cfg.Dir = t.TempDir()

	store, err := NewStore(cfg, nil)
	require.NoError(t, err)
	return store
}

// roundTrip opens a slot for a request carrying cookies, runs fn, and
// returns the last cookie named testCookie that the response set.
func roundTrip(t *testing.T, store sessions.Store, cookie *http.Cookie, fn func(*GorillaSlot)) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()

	slot, err := OpenSlot(store, testCookie, rec, req)
	require.NoError(t, err)
	fn(slot)

	var last *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie {
			last = c
		}
	}
	return last
}

func TestGorillaSlot_Backends(t *testing.T) {
	for _, backend := range []string{BackendCookie, BackendFilesystem} {
		t.Run(backend, func(t *testing.T) {
			store := testStore(t, backend)
			want := State{UserID: "01J0000000000000000000000", Username: "alice01", Email: "a@x.io"}

			cookie := roundTrip(t, store, nil, func(s *GorillaSlot) {
				_, ok := s.Load()
				assert.False(t, ok)
				require.NoError(t, s.Replace(want))
			})
			require.NotNil(t, cookie)
			assert.True(t, cookie.HttpOnly)

			roundTrip(t, store, cookie, func(s *GorillaSlot) {
				got, ok := s.Load()
				require.True(t, ok)
				assert.Equal(t, want, got)
			})

			cleared := roundTrip(t, store, cookie, func(s *GorillaSlot) {
				require.NoError(t, s.Clear())
				_, ok := s.Load()
				assert.False(t, ok)
			})
			require.NotNil(t, cleared)
			assert.Less(t, cleared.MaxAge, 0)
		})
	}
}

func TestGorillaSlot_ReplaceRotatesServerSession(t *testing.T) {
	store := testStore(t, BackendFilesystem)

	first := roundTrip(t, store, nil, func(s *GorillaSlot) {
		require.NoError(t, s.Replace(guestState()))
	})
	require.NotNil(t, first)

	second := roundTrip(t, store, first, func(s *GorillaSlot) {
		require.NoError(t, s.Replace(State{UserID: "u1", Username: "alice01", Email: "a@x.io"}))
	})
	require.NotNil(t, second)
	assert.NotEqual(t, first.Value, second.Value)

	roundTrip(t, store, first, func(s *GorillaSlot) {
		_, ok := s.Load()
		assert.False(t, ok, "the pre-login session must be gone")
	})
	roundTrip(t, store, second, func(s *GorillaSlot) {
		st, ok := s.Load()
		require.True(t, ok)
		assert.Equal(t, "u1", st.UserID)
	})
}

func TestGorillaSlot_GarbageCookieIsAnonymous(t *testing.T) {
	store := testStore(t, BackendCookie)

	roundTrip(t, store, &http.Cookie{Name: testCookie, Value: "garbage"}, func(s *GorillaSlot) {
		_, ok := s.Load()
		assert.False(t, ok)
		require.NoError(t, s.Replace(guestState()))
	})
}
