package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeProvider struct {
	*httptest.Server
	userinfo       map[string]any
	userinfoStatus int
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()

	p := &fakeProvider{
		userinfo: map[string]any{
			"id":      "1234567890",
			"email":   "gina@example.com",
			"name":    "Gina G",
			"picture": "https://example.com/gina.png",
		},
		userinfoStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(p.userinfoStatus)
		_ = json.NewEncoder(w).Encode(p.userinfo)
	})

	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Close)
	return p
}

func (p *fakeProvider) google(t *testing.T) *Google {
	t.Helper()

	g, err := NewGoogle(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost/api/auth/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.URL + "/auth",
			TokenURL:  p.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: p.URL + "/userinfo",
		HTTPClient:  p.Client(),
	})
	require.NoError(t, err)
	return g
}

func TestGoogle_AuthCodeURL(t *testing.T) {
	p := newFakeProvider(t)
	g := p.google(t)

	u, err := url.Parse(g.AuthCodeURL("state-123"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
}

func TestGoogle_Exchange(t *testing.T) {
	p := newFakeProvider(t)
	g := p.google(t)

	id, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, Identity{
		Subject:   "1234567890",
		Email:     "gina@example.com",
		Name:      "Gina G",
		AvatarURL: "https://example.com/gina.png",
	}, id)
}

func TestGoogle_ExchangeNameFallsBackToEmail(t *testing.T) {
	p := newFakeProvider(t)
	p.userinfo["name"] = ""
	g := p.google(t)

	id, err := g.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "gina", id.Name)
}

func TestGoogle_ExchangeFailures(t *testing.T) {
	t.Run("bad code", func(t *testing.T) {
		g := newFakeProvider(t).google(t)
		_, err := g.Exchange(context.Background(), "bad-code")
		assert.ErrorIs(t, err, ErrExchange)
	})

	t.Run("empty code", func(t *testing.T) {
		g := newFakeProvider(t).google(t)
		_, err := g.Exchange(context.Background(), "")
		assert.ErrorIs(t, err, ErrExchange)
	})

	t.Run("missing email", func(t *testing.T) {
		p := newFakeProvider(t)
		delete(p.userinfo, "email")
		_, err := p.google(t).Exchange(context.Background(), "good-code")
		assert.ErrorIs(t, err, ErrUserInfo)
	})

	t.Run("userinfo error status", func(t *testing.T) {
		p := newFakeProvider(t)
		p.userinfoStatus = http.StatusInternalServerError
		_, err := p.google(t).Exchange(context.Background(), "good-code")
		assert.ErrorIs(t, err, ErrUserInfo)
	})
}

func TestNewState(t *testing.T) {
	a, err := NewState()
	require.NoError(t, err)
	b, err := NewState()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}

func TestNewGoogle_RequiresCredentials(t *testing.T) {
	_, err := NewGoogle(Config{RedirectURL: "http://x"})
	assert.Error(t, err)
}
