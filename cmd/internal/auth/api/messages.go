package api

import (
	"errors"
	"net/http"

	"tunebox/cmd/identity"
	"tunebox/cmd/internal/auth/session"
)

const (
	msgInternal        = "Internal server error"
	msgBodyRequired    = "Request body required"
	msgInvalidBody     = "Invalid request body"
	msgNotAuthed       = "Not authenticated"
	msgSignupRequired  = "Username, email, and password are required"
	msgLoginRequired   = "Email/username and password are required"
	msgProfileRequired = "Username and email are required"
	msgNewPassRequired = "New password is required"
)

// userMessage maps a domain error to an HTTP status and the message shown to users.
func userMessage(err error) (int, string) {
	var ve identity.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, validationMessage(ve)
	}

	switch {
	case identity.IsDuplicateEmail(err):
		return http.StatusBadRequest, "Email already exists"
	case identity.IsDuplicateUsername(err):
		return http.StatusBadRequest, "Username already exists"
	case identity.IsFederatedOnly(err):
		return http.StatusUnauthorized, "This account uses Google sign-in. Please log in with Google"
	case identity.IsInvalidCredentials(err):
		return http.StatusUnauthorized, "Invalid email/username or password"
	case errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized, msgNotAuthed
	case identity.IsNotFound(err):
		return http.StatusNotFound, "User not found"
	case identity.IsStoreWrite(err):
		return http.StatusInternalServerError, "Failed to save user"
	case identity.IsStoreRead(err):
		return http.StatusServiceUnavailable, "User store unavailable"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func validationMessage(ve identity.ValidationError) string {
	switch ve.Field {
	case identity.FieldEmail:
		return "Invalid email format"
	case identity.FieldUsername:
		return "Username must be 4-20 characters long and contain only letters and numbers"
	case identity.FieldCredentials:
		return msgLoginRequired
	case identity.FieldPassword:
		switch ve.Msg {
		case "too long":
			return "Password is too long"
		case "too weak":
			return "Password is too weak"
		default:
			return "Password must be at least 8 characters long"
		}
	default:
		return msgInvalidBody
	}
}

// failureReason is the short audit reason for err.
func failureReason(err error) string {
	var ve identity.ValidationError
	if errors.As(err, &ve) {
		return "invalid_" + ve.Field
	}
	switch {
	case identity.IsDuplicateEmail(err):
		return "duplicate_email"
	case identity.IsDuplicateUsername(err):
		return "duplicate_username"
	case identity.IsFederatedOnly(err):
		return string(identity.ReasonFederatedOnly)
	case identity.IsInvalidCredentials(err):
		return string(identity.ReasonInvalidCredentials)
	case identity.IsNotFound(err):
		return "not_found"
	default:
		return "internal"
	}
}
