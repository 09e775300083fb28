// Package oauth implements the Google authorization-code flow used for
// federated login.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultUserInfoURL is Google's userinfo endpoint.
const DefaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	// ErrExchange is returned when the authorization code cannot be redeemed.
	ErrExchange = errors.New("oauth code exchange failed")

	// ErrUserInfo is returned when the provider profile is unusable.
	ErrUserInfo = errors.New("oauth userinfo failed")
)

// Identity is the provider-asserted user.
type Identity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// Config holds the client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint and UserInfoURL default to Google's.
	Endpoint    oauth2.Endpoint
	UserInfoURL string

	// HTTPClient is used for the token exchange and userinfo calls.
	HTTPClient *http.Client
}

// Enabled reports whether client credentials are present.
func (c Config) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Google runs the authorization-code flow against Google.
type Google struct {
	cfg         *oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewGoogle builds a provider from cfg.
func NewGoogle(cfg Config) (*Google, error) {
	if !cfg.Enabled() {
		return nil, errors.New("oauth: client id and secret are required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("oauth: redirect url is required")
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	userInfo := cfg.UserInfoURL
	if userInfo == "" {
		userInfo = DefaultUserInfoURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Google{
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfo,
		client:      client,
	}, nil
}

// AuthCodeURL returns the consent page URL carrying state.
func (g *Google) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange redeems code and fetches the user's profile.
func (g *Google) Exchange(ctx context.Context, code string) (Identity, error) {
	if strings.TrimSpace(code) == "" {
		return Identity{}, fmt.Errorf("%w: missing code", ErrExchange)
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	token, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	return g.fetchUserInfo(ctx, token)
}

func (g *Google) fetchUserInfo(ctx context.Context, token *oauth2.Token) (Identity, error) {
	client := g.cfg.Client(ctx, token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return Identity{}, fmt.Errorf("%w: status %d", ErrUserInfo, resp.StatusCode)
	}

	var data struct {
		ID      string `json:"id"`
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return Identity{}, fmt.Errorf("%w: decode: %v", ErrUserInfo, err)
	}

	id := Identity{
		Subject:   strings.TrimSpace(data.ID),
		Email:     strings.TrimSpace(data.Email),
		Name:      strings.TrimSpace(data.Name),
		AvatarURL: strings.TrimSpace(data.Picture),
	}
	if id.Subject == "" {
		id.Subject = strings.TrimSpace(data.Sub)
	}
	if id.Subject == "" || id.Email == "" {
		return Identity{}, fmt.Errorf("%w: missing subject or email", ErrUserInfo)
	}
	if id.Name == "" {
		id.Name, _, _ = strings.Cut(id.Email, "@")
	}
	return id, nil
}

// NewState returns a random value for the OAuth state parameter.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
