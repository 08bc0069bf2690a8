package util

import (
	"regexp"
	"strings"
)

var (
	uuidRegex   = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	emailRegex  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	digitsRegex = regexp.MustCompile(`^[0-9]+$`)
	expiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

func IsValidEmail(s string) bool {
	if s == "" || len(s) > 254 {
		return false
	}
	return emailRegex.MatchString(s)
}

func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	return digitsRegex.MatchString(s)
}

// IsValidExpiry checks the MM/YY shape only; the processor decides whether
// the date is in the past.
func IsValidExpiry(s string) bool {
	return expiryRegex.MatchString(s)
}

// NormalizeHandle strips a leading @ and surrounding whitespace.
func NormalizeHandle(s string) string {
	return strings.TrimPrefix(strings.TrimSpace(s), "@")
}
