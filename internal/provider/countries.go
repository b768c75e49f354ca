package provider

import (
	"context"
	"fmt"
	"log/slog"
)

type countryPage struct {
	Countries   []CountryRef `json:"countries"`
	NextPageURI string       `json:"next_page_uri"`
}

// ListCountries walks next_page_uri until it is absent. Pages are concatenated
// in arrival order; a failure on any page discards everything collected.
func (c *client) ListCountries(ctx context.Context) ([]CountryRef, error) {
	var all []CountryRef

	next := c.accountURL()
	for next != "" {
		var page countryPage
		if err := c.getJSON(ctx, next, nil, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch country page: %w", err)
		}
		all = append(all, page.Countries...)
		next = c.resolveNext(page.NextPageURI)
	}

	slog.InfoContext(ctx, "Fetched countries", "count", len(all))
	return all, nil
}

// GetCountryDetails fetches the detail payload for one country
func (c *client) GetCountryDetails(ctx context.Context, countryCode string) (*CountryDetails, error) {
	var details CountryDetails
	if err := c.getJSON(ctx, c.accountURL(countryCode), nil, &details); err != nil {
		return nil, fmt.Errorf("failed to fetch details for country %s: %w", countryCode, err)
	}
	return &details, nil
}
