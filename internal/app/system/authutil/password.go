// Package authutil hashes and checks account passwords.
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password limits. bcrypt ignores input past 72 bytes, so longer passwords
// are rejected rather than silently truncated.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
	DefaultCost       = 12
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
	ErrPasswordCommon   = errors.New("password is too common")
)

var commonPasswords = map[string]bool{
	"12345678":  true,
	"123456789": true,
	"password":  true,
	"password1": true,
	"qwerty123": true,
	"iloveyou":  true,
	"sunshine":  true,
	"football":  true,
	"baseball":  true,
	"superman":  true,
	"letmein1":  true,
	"welcome1":  true,
}

// ValidatePassword checks a new password against the length limits and the
// common-password list (case-insensitive).
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword returns the bcrypt hash of password. A cost outside bcrypt's
// range falls back to DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash. An empty
// hash never matches.
func CheckPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
