package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// IsLegacyBcrypt reports whether encoded looks like a bcrypt hash
// written by the previous backend ($2a$, $2b$ or $2y$).
func IsLegacyBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}

func verifyBcrypt(encoded, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}
