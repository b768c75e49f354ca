// Package common provides shared HTTP utility functions for API handlers.
package common

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PathParam returns the unescaped chi route parameter name. Blank values and
// values with embedded whitespace are rejected.
func PathParam(r *http.Request, name string) (string, error) {
	value, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return "", fmt.Errorf("invalid URL encoding in %s", name)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%s cannot be empty", name)
	}
	if strings.ContainsAny(value, " \t\n\r") {
		return "", fmt.Errorf("%s cannot contain whitespace", name)
	}
	return value, nil
}

// CountryCodeParam returns the country_code route parameter upper-cased.
// Unknown codes are left for the store to report as not found.
func CountryCodeParam(r *http.Request) (string, error) {
	code, err := PathParam(r, "country_code")
	if err != nil {
		return "", err
	}
	return strings.ToUpper(code), nil
}

// JobIDParam returns the job_id route parameter in canonical UUID form
func JobIDParam(r *http.Request) (string, error) {
	raw, err := PathParam(r, "job_id")
	if err != nil {
		return "", err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("job_id must be a UUID, got %q", raw)
	}
	return id.String(), nil
}
