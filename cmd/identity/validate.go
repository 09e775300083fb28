package identity

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	emailRule    = "required,email"
	usernameRule = "required,alphanum,min=4,max=20"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateEmail checks email syntax.
func ValidateEmail(op, email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, emailRule); err != nil {
		return ValidationError{Op: op, Field: FieldEmail, Msg: "invalid format"}
	}
	return nil
}

// ValidateUsername checks the username rule: 4-20 ASCII letters or digits.
func ValidateUsername(op, username string) error {
	username = strings.TrimSpace(username)
	if err := validate.Var(username, usernameRule); err != nil {
		return ValidationError{Op: op, Field: FieldUsername, Msg: "must be 4-20 letters or digits"}
	}
	return nil
}
