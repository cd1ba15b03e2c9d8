package service

import (
	"regexp"
	"strings"
	"unicode"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword enforces the registration password policy: at least
// eight characters with an upper-case letter, a lower-case letter and a
// digit. Returns a caller-facing reason when the candidate falls short.
func validatePassword(password string) (string, bool) {
	if len(password) < minPasswordLength {
		return "must be at least 8 characters", false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return "must contain an upper-case letter", false
	case !hasLower:
		return "must contain a lower-case letter", false
	case !hasDigit:
		return "must contain a digit", false
	}
	return "", true
}
