package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"tunebox/cmd/identity"
	"tunebox/cmd/internal/auth/session"
)

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"duplicate email", identity.ConflictError{Op: "signup", Field: identity.FieldEmail}, http.StatusBadRequest, "Email already exists"},
		{"duplicate username", identity.ConflictError{Op: "signup", Field: identity.FieldUsername}, http.StatusBadRequest, "Username already exists"},
		{"bad email", identity.ValidationError{Op: "signup", Field: identity.FieldEmail}, http.StatusBadRequest, "Invalid email format"},
		{"weak password", identity.ValidationError{Op: "signup", Field: identity.FieldPassword, Msg: "too weak"}, http.StatusBadRequest, "Password is too weak"},
		{"missing credentials", identity.ValidationError{Op: "login", Field: identity.FieldCredentials}, http.StatusBadRequest, msgLoginRequired},
		{"invalid credentials", identity.AuthError{Op: "login", Reason: identity.ReasonInvalidCredentials}, http.StatusUnauthorized, "Invalid email/username or password"},
		{"not authenticated", fmt.Errorf("wrap: %w", session.ErrNotAuthenticated), http.StatusUnauthorized, msgNotAuthed},
		{"not found", identity.NotFoundError{Op: "update"}, http.StatusNotFound, "User not found"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, msgInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := userMessage(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "invalid_email", failureReason(identity.ValidationError{Field: identity.FieldEmail}))
	assert.Equal(t, "duplicate_username", failureReason(identity.ConflictError{Field: identity.FieldUsername}))
	assert.Equal(t, string(identity.ReasonInvalidCredentials), failureReason(identity.AuthError{Reason: identity.ReasonInvalidCredentials}))
	assert.Equal(t, "internal", failureReason(errors.New("x")))
}
