package api

import "tunebox/cmd/internal/auth/session"

type signupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginRequest accepts the identifier under either key.
type loginRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"required_without=Username"`
	Password string `json:"password" validate:"required"`
}

func (r loginRequest) identifier() string {
	if r.Username != "" {
		return r.Username
	}
	return r.Email
}

type updateProfileRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type checkAuthResponse struct {
	Authenticated bool              `json:"authenticated"`
	User          *session.UserView `json:"user"`
}

type meResponse struct {
	Success bool              `json:"success"`
	User    *session.UserView `json:"user"`
}

type googleLoginResponse struct {
	Success          bool   `json:"success"`
	AuthorizationURL string `json:"authorization_url"`
}
