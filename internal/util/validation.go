package util

import (
	"regexp"
)

var (
	sessionIDRegex    = regexp.MustCompile(`^[0-9a-f]{24}$`)
	alphanumericRegex = regexp.MustCompile(`^[0-9a-zA-Z]+$`)
)

// IsSessionID reports whether s has the exact shape of a minted session id.
func IsSessionID(s string) bool {
	return sessionIDRegex.MatchString(s)
}

func IsAlphanumeric(s string) bool {
	return alphanumericRegex.MatchString(s)
}
