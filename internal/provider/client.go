// Package provider implements the telephony provider endpoints used by the
// sync pipeline and the live number search: country enumeration, country
// details, regulatory compliance listings and available number search.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/stacklok/phone-registry-server/internal/httpclient"
)

const (
	// DefaultBaseURL is the provider's core REST API
	DefaultBaseURL = "https://api.twilio.com"

	// DefaultNumbersBaseURL hosts the regulatory compliance API
	DefaultNumbersBaseURL = "https://numbers.twilio.com"
)

// Client is the provider capability consumed by the sync pipeline and the API
//
//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=client.go Client
type Client interface {
	// ListCountries returns every country the account can buy numbers in,
	// following pagination to exhaustion. Any page failure fails the call.
	ListCountries(ctx context.Context) ([]CountryRef, error)

	// GetCountryDetails returns the detail payload for one country
	GetCountryDetails(ctx context.Context, countryCode string) (*CountryDetails, error)

	// ListRegulations returns all business end-user regulations for a country
	ListRegulations(ctx context.Context, countryCode, numberType string, includeConstraints bool) ([]Regulation, error)

	// SearchAvailableNumbers performs a live search for purchasable numbers
	SearchAvailableNumbers(ctx context.Context, req SearchRequest) ([]AvailableNumber, error)
}

// Option configures the provider client
type Option func(*client)

// WithBaseURL overrides the core API base URL
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithNumbersBaseURL overrides the regulatory compliance API base URL
func WithNumbersBaseURL(baseURL string) Option {
	return func(c *client) {
		if baseURL != "" {
			c.numbersBaseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

type client struct {
	http           httpclient.Client
	accountSID     string
	baseURL        string
	numbersBaseURL string
}

var _ Client = (*client)(nil)

// New creates a provider client on top of an authenticated HTTP client
func New(httpClient httpclient.Client, accountSID string, opts ...Option) (Client, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if accountSID == "" {
		return nil, fmt.Errorf("account SID is required")
	}

	c := &client{
		http:           httpClient,
		accountSID:     accountSID,
		baseURL:        DefaultBaseURL,
		numbersBaseURL: DefaultNumbersBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// accountURL builds an URL under the account's AvailablePhoneNumbers resource
func (c *client) accountURL(segments ...string) string {
	escaped := make([]string, 0, len(segments))
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/AvailablePhoneNumbers%s.json",
		c.baseURL, url.PathEscape(c.accountSID), prefixed(escaped))
}

func prefixed(segments []string) string {
	if len(segments) == 0 {
		return ""
	}
	return "/" + strings.Join(segments, "/")
}

// resolveNext turns a next-page pointer into an absolute URL.
// The core API returns paths, the numbers API returns absolute URLs.
func (c *client) resolveNext(next string) string {
	if next == "" {
		return ""
	}
	if strings.HasPrefix(next, "http://") || strings.HasPrefix(next, "https://") {
		return next
	}
	return c.baseURL + next
}

// getJSON fetches target and decodes the body into out
func (c *client) getJSON(ctx context.Context, target string, query url.Values, out any) error {
	body, err := c.http.Do(ctx, http.MethodGet, target, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &httpclient.Fault{
			Kind:    httpclient.FaultPermanent,
			URL:     target,
			Message: "malformed response body",
			Err:     err,
		}
	}
	return nil
}
