// Package phone validates and normalises Ghanaian mobile numbers.
package phone

import (
	"regexp"
)

var nonDigit = regexp.MustCompile(`\D`)

var validPrefixes = []string{"02", "03", "05"}

// Digits strips every non-digit character.
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// IsValid reports whether s is a 10-digit local number with a 02, 03 or 05 prefix.
func IsValid(s string) bool {
	d := Digits(s)
	if len(d) != 10 {
		return false
	}
	for _, p := range validPrefixes {
		if d[:2] == p {
			return true
		}
	}
	return false
}

// Normalize returns the digits-only form of a valid number, or "" if invalid.
func Normalize(s string) string {
	if !IsValid(s) {
		return ""
	}
	return Digits(s)
}

// Format renders a valid number as 0XX-XXX-XXXX and returns anything else unchanged.
func Format(s string) string {
	d := Normalize(s)
	if d == "" {
		return s
	}
	return d[:3] + "-" + d[3:6] + "-" + d[6:]
}
