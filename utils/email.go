package utils

import (
	"strings"

	"github.com/badoux/checkmail"
)

// NormalizeEmail trims and lowercases an address after checking its format.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return "", ErrValidation(FieldError{Field: "email", Message: "email must be a valid email"})
	}
	return email, nil
}
