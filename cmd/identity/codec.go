package identity

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"tunebox/cmd/security/password"
)

// PasswordCodec hashes and verifies user passwords.
type PasswordCodec struct {
	cfg password.Config

	// dummyHash is verified against when a login names an unknown user,
	// so that path costs the same as a real mismatch.
	dummyHash string
}

// NewPasswordCodec builds a codec with cfg and precomputes its dummy hash.
func NewPasswordCodec(cfg password.Config) (*PasswordCodec, error) {
	c := &PasswordCodec{cfg: cfg}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	dummy, err := cfg.Hash(base64.RawURLEncoding.EncodeToString(buf))
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}
	c.dummyHash = dummy
	return c, nil
}

// Validate applies the password policy.
// Policy violations come back as ValidationError on the password field.
func (c *PasswordCodec) Validate(op, pw string) error {
	if err := c.cfg.Validate(pw); err != nil {
		return passwordPolicyError(op, err)
	}
	return nil
}

// Hash returns a salted hash of pw. Two calls never return the same string.
// It does not apply the password policy; see Validate.
func (c *PasswordCodec) Hash(pw string) (string, error) {
	h, err := c.cfg.Hash(pw)
	if err != nil {
		return "", passwordPolicyError("identity.hash_password", err)
	}
	return h, nil
}

// Verify reports whether pw matches hash.
// A nil, empty or malformed hash is simply a mismatch.
func (c *PasswordCodec) Verify(pw string, hash *string) bool {
	if hash == nil || *hash == "" {
		return false
	}
	ok, err := c.cfg.Verify(*hash, pw)
	return err == nil && ok
}

// burn spends one verification worth of time and discards the result.
func (c *PasswordCodec) burn(pw string) {
	if c.dummyHash == "" {
		return
	}
	_, _ = c.cfg.Verify(c.dummyHash, pw)
}

func passwordPolicyError(op string, err error) error {
	switch {
	case errors.Is(err, password.ErrPasswordTooShort):
		return ValidationError{Op: op, Field: FieldPassword, Msg: "too short"}
	case errors.Is(err, password.ErrPasswordTooLong):
		return ValidationError{Op: op, Field: FieldPassword, Msg: "too long"}
	case errors.Is(err, password.ErrWeakPassword):
		return ValidationError{Op: op, Field: FieldPassword, Msg: "too weak"}
	default:
		return OpError{Op: op, Kind: ErrHashFailed, Msg: err.Error()}
	}
}
