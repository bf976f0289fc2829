// Package validation holds the request field checks shared by
// handlers.
package validation

import (
	"fmt"
	"net/mail"
	"unicode/utf8"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 64
	maxNicknameLength = 10
	maxTaglineLength  = 20
)

// ValidateEmail checks the address parses as RFC 5322.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword checks length bounds only; content is the user's
// business.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if n > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}
	return nil
}

// ValidateProfile checks nickname and tagline length bounds.
func ValidateProfile(nickname, tagline string) error {
	if nickname == "" {
		return fmt.Errorf("nickname is required")
	}
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		return fmt.Errorf("nickname must be at most %d characters", maxNicknameLength)
	}
	if utf8.RuneCountInString(tagline) > maxTaglineLength {
		return fmt.Errorf("tagline must be at most %d characters", maxTaglineLength)
	}
	return nil
}
