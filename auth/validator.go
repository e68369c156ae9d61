package auth

import (
	"strings"

	"chathub/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Credentials is the raw login/signup form input.
type Credentials struct {
	Handle string `validate:"required,min=1"`
	Secret string `validate:"required,min=6"`
}

// ValidateCredentials enforces the shared rules of login and signup:
// no blank fields, then the minimum secret length. The length rule
// runs on login too, not only on signup.
func ValidateCredentials(handle, secret string) error {
	if strings.TrimSpace(handle) == "" || strings.TrimSpace(secret) == "" {
		return errors.ErrValidation
	}
	creds := Credentials{Handle: strings.TrimSpace(handle), Secret: secret}
	if err := validate.Struct(creds); err != nil {
		return errors.ErrWeakSecret
	}
	return nil
}
