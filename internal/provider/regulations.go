package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
)

type regulationPayload struct {
	Sid          string          `json:"sid"`
	FriendlyName string          `json:"friendly_name"`
	IsoCountry   string          `json:"iso_country"`
	NumberType   string          `json:"number_type"`
	Requirements json.RawMessage `json:"requirements"`
	URL          string          `json:"url"`
}

type regulationPage struct {
	Results []regulationPayload `json:"results"`
	Meta    struct {
		NextPageURL string `json:"next_page_url"`
	} `json:"meta"`
}

// ListRegulations fetches every regulation page for a country.
// EndUserType is always business regardless of the caller.
func (c *client) ListRegulations(
	ctx context.Context,
	countryCode, numberType string,
	includeConstraints bool,
) ([]Regulation, error) {
	query := url.Values{
		"EndUserType":        {EndUserTypeBusiness},
		"IsoCountry":         {countryCode},
		"IncludeConstraints": {strconv.FormatBool(includeConstraints)},
	}
	if numberType != "" {
		query.Set("NumberType", numberType)
	}

	var all []Regulation
	next := c.numbersBaseURL + "/v2/RegulatoryCompliance/Regulations"
	for next != "" {
		var page regulationPage
		if err := c.getJSON(ctx, next, query, &page); err != nil {
			return nil, fmt.Errorf("failed to fetch regulations for country %s: %w", countryCode, err)
		}
		for _, r := range page.Results {
			all = append(all, normalizeRegulation(r))
		}
		next = c.resolveNext(page.Meta.NextPageURL)
		// later pages carry the query in the URL
		query = nil
	}

	slog.DebugContext(ctx, "Fetched regulations", "country", countryCode, "count", len(all))
	return all, nil
}

func normalizeRegulation(r regulationPayload) Regulation {
	requirements := r.Requirements
	if string(requirements) == "null" {
		requirements = nil
	}
	return Regulation{
		Sid:          r.Sid,
		FriendlyName: r.FriendlyName,
		IsoCountry:   r.IsoCountry,
		NumberType:   r.NumberType,
		EndUserType:  EndUserTypeBusiness,
		Requirements: requirements,
		URL:          r.URL,
	}
}
