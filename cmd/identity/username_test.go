package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveUsername(t *testing.T) {
	none := func(string) bool { return false }

	tests := []struct {
		name    string
		display string
		email   string
		taken   func(string) bool
		want    string
	}{
		{name: "display name stripped", display: "Bob Smith", email: "bob@x.io", taken: none, want: "BobSmith"},
		{name: "falls back to email", display: "  ", email: "carol.d@x.io", taken: none, want: "carold"},
		{name: "non ascii letters dropped", display: "Ünïcödé", email: "u@x.io", taken: none, want: "ncd0"},
		{name: "padded", display: "Al", email: "al@x.io", taken: none, want: "Al00"},
		{name: "truncated", display: "abcdefghijklmnopqrstuvwxyz", email: "a@x.io", taken: none, want: "abcdefghijklmnopqrst"},
		{name: "default base", display: "", email: "@x.io", taken: none, want: "user"},
		{
			name:    "suffix on collision",
			display: "Bob Smith",
			email:   "bob@x.io",
			taken:   func(s string) bool { return s == "BobSmith" || s == "BobSmith1" },
			want:    "BobSmith2",
		},
		{
			name:    "suffix keeps max length",
			display: "abcdefghijklmnopqrst",
			email:   "a@x.io",
			taken:   func(s string) bool { return s == "abcdefghijklmnopqrst" },
			want:    "abcdefghijklmnopqrs1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveUsername(tt.display, tt.email, tt.taken)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, ValidateUsername("test", got))
		})
	}
}
