// Package validators provides validation functions for phone registry request fields.
package validators

import (
	"fmt"
	"regexp"
	"strings"
)

// ISO 3166-1 alpha-2, after normalization
var countryCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// ValidateCountryCode validates an ISO 3166-1 alpha-2 country code.
// Returns the normalized (trimmed, upper-cased) code and an error if validation fails.
//
// Examples of valid codes:
//   - US
//   - gb (normalized to GB)
//
// Examples of invalid codes:
//   - USA (too long)
//   - U1 (not a letter)
func ValidateCountryCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	if code == "" {
		return "", fmt.Errorf("country_code cannot be empty")
	}
	if !countryCodePattern.MatchString(code) {
		return "", fmt.Errorf("country_code must be a 2-letter ISO country code")
	}
	return code, nil
}

// IsValidCountryCode checks if a country code is valid.
// This is a convenience wrapper around ValidateCountryCode for boolean checks.
func IsValidCountryCode(code string) bool {
	_, err := ValidateCountryCode(code)
	return err == nil
}
