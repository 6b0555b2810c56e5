package utils

import (
	netmail "net/mail"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func ValidateEmail(email string) error {
	_, err := netmail.ParseAddress(email)

	return err
}

// NormalizeEmail trims surrounding space and lowercases the address so
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AllPresent reports whether every value is non-empty after trimming.
func AllPresent(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// SafeRedirect returns target when it is a local path, fallback otherwise.
// Absolute URLs on the request host are reduced to their path.
func SafeRedirect(target, host, fallback string) string {
	if target == "" {
		return fallback
	}
	u, err := url.Parse(target)
	if err != nil {
		return fallback
	}
	if u.IsAbs() || u.Host != "" {
		if u.Host != host {
			return fallback
		}
		u.Scheme, u.Host, u.User = "", "", nil
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	return u.String()
}
