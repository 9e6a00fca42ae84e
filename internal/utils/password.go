package utils

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// commonPasswords are rejected outright regardless of composition.
var commonPasswords = map[string]bool{
	"password":    true,
	"password1":   true,
	"password123": true,
	"123456":      true,
	"123456789":   true,
	"12345678":    true,
	"qwerty":      true,
	"qwerty123":   true,
	"abc123":      true,
	"admin":       true,
	"letmein":     true,
	"welcome":     true,
	"monkey":      true,
	"iloveyou":    true,
}

// ValidatePasswordStrength enforces the password policy: 8..128 chars,
// at least one uppercase, one lowercase and one digit, and not on the
// common-password list. Returns one human-readable reason per violation
// so callers can render field-level errors.
func ValidatePasswordStrength(password string) []string {
	var reasons []string

	if len(password) < 8 {
		reasons = append(reasons, "password must be at least 8 characters long")
	}
	if len(password) > 128 {
		reasons = append(reasons, "password must be at most 128 characters long")
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
	if !hasUpper {
		reasons = append(reasons, "password must contain at least one uppercase letter")
	}
	if !hasLower {
		reasons = append(reasons, "password must contain at least one lowercase letter")
	}
	if !hasDigit {
		reasons = append(reasons, "password must contain at least one digit")
	}

	if commonPasswords[strings.ToLower(password)] {
		reasons = append(reasons, "password is too common")
	}
	return reasons
}

// NormalizeEmail lowercases and trims an email address. A minimal shape
// check is enough here; delivery failures surface out-of-band.
func NormalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return "", false
	}
	if !strings.Contains(email[at+1:], ".") {
		return "", false
	}
	return email, true
}

// MaskEmail hides most of the local part for reset-token validation
// responses, e.g. "admin@example.com" -> "a***n@example.com".
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return local[:1] + "***" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + domain
}
