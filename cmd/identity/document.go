package identity

import (
	"strings"
	"time"
)

// legacyTimeLayouts are accepted for created_at in addition to RFC 3339.
// Older database files carry naive local timestamps without a zone.
var legacyTimeLayouts = []string{
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
}

// document is the on-disk store layout: {"users": [...]}.
type document struct {
	Users []record `json:"users"`
}

// record mirrors one entry of the users array.
// CreatedAt is kept as written so untouched records round-trip unchanged.
type record struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	PasswordHash *string `json:"password_hash"`
	CreatedAt    string  `json:"created_at"`
	Guest        bool    `json:"guest"`
	AvatarURL    *string `json:"avatar_url"`
	ExternalID   *string `json:"external_id"`

	// GoogleID is read from legacy files and folded into ExternalID.
	GoogleID *string `json:"google_id,omitempty"`
}

// upgrade folds legacy fields into their current names.
func (d *document) upgrade() {
	for i := range d.Users {
		r := &d.Users[i]
		if r.ExternalID == nil && r.GoogleID != nil && *r.GoogleID != "" {
			id := *r.GoogleID
			r.ExternalID = &id
		}
		r.GoogleID = nil
	}
}

func (d *document) indexByEmail(email string) int {
	key := NormalizeEmail(email)
	if key == "" {
		return -1
	}
	for i, r := range d.Users {
		if NormalizeEmail(r.Email) == key {
			return i
		}
	}
	return -1
}

func (d *document) indexByUsername(username string) int {
	key := NormalizeUsername(username)
	if key == "" {
		return -1
	}
	for i, r := range d.Users {
		if NormalizeUsername(r.Username) == key {
			return i
		}
	}
	return -1
}

func (d *document) indexByID(id string) int {
	if id == "" {
		return -1
	}
	for i, r := range d.Users {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// takenByOther reports whether idx (a match position, -1 for none) belongs to a record other than self.
func takenByOther(idx, self int) bool {
	return idx >= 0 && idx != self
}

func (r record) user() User {
	return User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: cloneString(r.PasswordHash),
		ExternalID:   cloneString(r.ExternalID),
		AvatarURL:    cloneString(r.AvatarURL),
		CreatedAt:    parseCreatedAt(r.CreatedAt),
	}
}

func formatCreatedAt(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseCreatedAt returns the zero time for values it cannot read.
func parseCreatedAt(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC()
	}
	for _, layout := range legacyTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
