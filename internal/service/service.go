// Package service provides the read side of the phone registry: country
// number-type availability and business regulations
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/stacklok/phone-registry-server/internal/provider"
)

var (
	// ErrCountryNotFound is returned when no availability row exists for a country
	ErrCountryNotFound = errors.New("country not found")
	// ErrRegulationsNotFound is returned when a regulation query matches nothing
	ErrRegulationsNotFound = errors.New("regulations not found")
	// ErrInvalidNumberType is returned for a number type outside the known set
	ErrInvalidNumberType = errors.New("invalid number type")
)

const (
	// DefaultPageSize is the default number of countries returned by ListCountries
	DefaultPageSize = 100
	// MaxPageSize caps the number of countries returned by ListCountries
	MaxPageSize = 1000
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go QueryService

// QueryService defines the read operations served by the API
type QueryService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// GetCountry returns the availability row of one country. The code is
	// matched case-insensitively.
	GetCountry(ctx context.Context, countryCode string) (*Country, error)

	// ListCountries returns availability rows ordered by country code
	ListCountries(ctx context.Context, opts ...Option) ([]Country, error)

	// ListRegulations returns the business regulations of one country.
	// An empty result is reported as ErrRegulationsNotFound.
	ListRegulations(ctx context.Context, countryCode string, opts ...Option) ([]Regulation, error)
}

// Country is the stored number-type availability of one country
type Country struct {
	CountryCode string `json:"country_code"`
	Country     string `json:"country"`
	Beta        bool   `json:"beta"`
	provider.NumberTypes
	LastUpdated time.Time `json:"last_updated"`
}

// Regulation is a stored regulatory compliance record
type Regulation struct {
	Sid          string          `json:"sid"`
	FriendlyName *string         `json:"friendly_name"`
	IsoCountry   *string         `json:"iso_country"`
	NumberType   *string         `json:"number_type"`
	EndUserType  string          `json:"end_user_type"`
	Requirements json.RawMessage `json:"requirements"`
	URL          *string         `json:"url"`
	LastUpdated  time.Time       `json:"last_updated"`
}
