package identity

import "time"

// User is tunebox's stored account record.
// PasswordHash is nil for federated-only accounts.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash *string
	ExternalID   *string
	AvatarURL    *string
	CreatedAt    time.Time
}

// HasPassword reports whether the account can log in with a local password.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// Profile returns the caller-safe view of u. It never carries the password hash.
func (u User) Profile() Profile {
	return Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		CreatedAt:  u.CreatedAt,
		AvatarURL:  u.AvatarURL,
		ExternalID: u.ExternalID,
	}
}

// Profile is the user record as exposed to its owner.
type Profile struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
	Guest      bool      `json:"guest"`
	AvatarURL  *string   `json:"avatar_url"`
	ExternalID *string   `json:"external_id"`
}

// FederatedInput is an identity asserted by an external provider.
type FederatedInput struct {
	Email       string
	DisplayName string
	ExternalID  string
	AvatarURL   string
}
