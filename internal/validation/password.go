// Package validation performs client-side checks that mirror server policy.
// The server remains authoritative; these checks exist so users get fast
// feedback before a round trip.
package validation

import (
	"unicode"

	"github.com/covaulthq/covault/internal/cverrors"
)

// Result reports the outcome of a local validation pass.
type Result struct {
	Valid  bool
	Errors []string
}

// CheckPasswordComplexity applies the same rule the server enforces with
// HTTP 422: at least 12 characters including 2 uppercase, 2 lowercase,
// 1 digit and 1 special character.
func CheckPasswordComplexity(password string) *Result {
	var upper, lower, digit, special int
	runes := 0
	for _, r := range password {
		runes++
		switch {
		case unicode.IsUpper(r):
			upper++
		case unicode.IsLower(r):
			lower++
		case unicode.IsDigit(r):
			digit++
		default:
			special++
		}
	}

	result := &Result{Valid: true}
	if runes < 12 || upper < 2 || lower < 2 || digit < 1 || special < 1 {
		result.Valid = false
		result.Errors = append(result.Errors, cverrors.PasswordComplexityMessage)
	}
	return result
}
