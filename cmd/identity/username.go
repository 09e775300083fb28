package identity

import (
	"strconv"
	"strings"
)

const (
	usernameMinLen = 4
	usernameMaxLen = 20
)

// deriveUsername builds a valid, unused username for a federated account.
// It keeps the ASCII letters and digits of displayName, falling back to the
// email local part, then pads or truncates to the length rule. Collisions
// get a numeric suffix.
func deriveUsername(displayName, email string, taken func(string) bool) string {
	base := asciiAlnum(displayName)
	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		base = asciiAlnum(local)
	}
	if base == "" {
		base = "user"
	}
	for len(base) < usernameMinLen {
		base += "0"
	}
	if len(base) > usernameMaxLen {
		base = base[:usernameMaxLen]
	}

	if !taken(base) {
		return base
	}
	for n := 1; ; n++ {
		suffix := strconv.Itoa(n)
		stem := base
		if len(stem)+len(suffix) > usernameMaxLen {
			stem = stem[:usernameMaxLen-len(suffix)]
		}
		if candidate := stem + suffix; !taken(candidate) {
			return candidate
		}
	}
}

func asciiAlnum(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
