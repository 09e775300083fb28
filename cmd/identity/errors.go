package identity

import (
	"errors"
	"fmt"
)

// OpError is a typed operation error with a stable Op + Kind contract.
// Msg may carry context for logs; it never contains secrets.
type OpError struct {
	Op   string
	Kind error
	Msg  string
}

func (e OpError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e OpError) Unwrap() error { return e.Kind }

// Field names used by ValidationError and ConflictError.
const (
	FieldEmail       = "email"
	FieldUsername    = "username"
	FieldPassword    = "password"
	FieldCredentials = "credentials"
)

// ValidationError reports input that failed a syntax or policy rule.
type ValidationError struct {
	Op    string
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, ErrInvalidInput, e.Field)
	}
	return fmt.Sprintf("%s: %v: %s: %s", e.Op, ErrInvalidInput, e.Field, e.Msg)
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// ConflictError reports a uniqueness conflict on Field ("email" or "username").
type ConflictError struct {
	Op    string
	Field string
}

func (e ConflictError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrConflict)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrConflict, e.Field)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports a missing record.
type NotFoundError struct {
	Op       string
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrNotFound)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrNotFound, e.Resource)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// AuthReason distinguishes the two login failure modes callers may surface.
type AuthReason string

const (
	// ReasonInvalidCredentials covers unknown identifiers and wrong passwords alike.
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
	// ReasonFederatedOnly means the account has no password and must use federated login.
	ReasonFederatedOnly AuthReason = "federated_only"
)

// AuthError reports a failed credential check.
type AuthError struct {
	Op     string
	Reason AuthReason
}

func (e AuthError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrUnauthenticated, e.Reason)
}

func (e AuthError) Unwrap() error { return ErrUnauthenticated }

func invalidCredentials(op string) error {
	return AuthError{Op: op, Reason: ReasonInvalidCredentials}
}

// IsInvalidInput reports whether err represents ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// InvalidField returns the offending field of a ValidationError.
func InvalidField(err error) (string, bool) {
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Field, true
	}
	return "", false
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// IsDuplicateEmail reports whether err is a uniqueness conflict on email.
func IsDuplicateEmail(err error) bool { return conflictField(err) == FieldEmail }

// IsDuplicateUsername reports whether err is a uniqueness conflict on username.
func IsDuplicateUsername(err error) bool { return conflictField(err) == FieldUsername }

func conflictField(err error) string {
	var ce ConflictError
	if errors.As(err, &ce) {
		return ce.Field
	}
	return ""
}

// IsNotFound reports whether err represents ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidCredentials reports whether err is a generic credential failure.
func IsInvalidCredentials(err error) bool { return authReason(err) == ReasonInvalidCredentials }

// IsFederatedOnly reports whether err is a login attempt against a password-less account.
func IsFederatedOnly(err error) bool { return authReason(err) == ReasonFederatedOnly }

func authReason(err error) AuthReason {
	var ae AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}

// IsStoreWrite reports whether err is a persistence failure.
func IsStoreWrite(err error) bool { return errors.Is(err, ErrStoreWrite) }

// IsStoreRead reports whether err is an unreadable store document (strict mode only).
func IsStoreRead(err error) bool { return errors.Is(err, ErrStoreRead) }
