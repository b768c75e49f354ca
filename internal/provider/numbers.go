package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidSearchType is returned for number types the search endpoint does not support
var ErrInvalidSearchType = errors.New("invalid number type: must be one of mobile, local, toll-free")

// searchTypes maps request number types to provider path segments
var searchTypes = map[string]string{
	"mobile":    "Mobile",
	"local":     "Local",
	"toll-free": "TollFree",
}

// SearchPathType returns the provider path segment for a search number type
func SearchPathType(numberType string) (string, error) {
	pathType, ok := searchTypes[numberType]
	if !ok {
		return "", fmt.Errorf("%w: got %q", ErrInvalidSearchType, numberType)
	}
	return pathType, nil
}

type availableNumberPayload struct {
	PhoneNumber         *string         `json:"phone_number"`
	FriendlyName        *string         `json:"friendly_name"`
	Capabilities        map[string]bool `json:"capabilities"`
	IsoCountry          *string         `json:"iso_country"`
	AddressRequirements *string         `json:"address_requirements"`
	Beta                *bool           `json:"beta"`
	Lata                *string         `json:"lata"`
	Locality            *string         `json:"locality"`
	RateCenter          *string         `json:"rate_center"`
	Latitude            flexFloat       `json:"latitude"`
	Longitude           flexFloat       `json:"longitude"`
	Region              *string         `json:"region"`
	PostalCode          *string         `json:"postal_code"`
}

type availableNumberPage struct {
	AvailablePhoneNumbers []availableNumberPayload `json:"available_phone_numbers"`
	NextPageURI           string                   `json:"next_page_uri"`
}

// SearchAvailableNumbers lists purchasable numbers across all result pages
func (c *client) SearchAvailableNumbers(ctx context.Context, req SearchRequest) ([]AvailableNumber, error) {
	pathType, err := SearchPathType(req.NumberType)
	if err != nil {
		return nil, err
	}
	countryCode := strings.ToUpper(req.CountryCode)

	query := url.Values{}
	if req.SmsEnabled != nil {
		query.Set("SmsEnabled", strconv.FormatBool(*req.SmsEnabled))
	}
	if req.VoiceEnabled != nil {
		query.Set("VoiceEnabled", strconv.FormatBool(*req.VoiceEnabled))
	}

	var all []AvailableNumber
	next := c.accountURL(countryCode, pathType)
	for next != "" {
		var page availableNumberPage
		if err := c.getJSON(ctx, next, query, &page); err != nil {
			return nil, fmt.Errorf("failed to search %s numbers in %s: %w", req.NumberType, countryCode, err)
		}
		for _, n := range page.AvailablePhoneNumbers {
			all = append(all, toAvailableNumber(n))
		}
		next = c.resolveNext(page.NextPageURI)
		query = nil
	}

	slog.InfoContext(ctx, "Fetched available numbers",
		"country", countryCode,
		"number_type", req.NumberType,
		"count", len(all))
	return all, nil
}

func toAvailableNumber(n availableNumberPayload) AvailableNumber {
	return AvailableNumber{
		PhoneNumber:         n.PhoneNumber,
		FriendlyName:        n.FriendlyName,
		Capabilities:        NormalizeCapabilities(n.Capabilities),
		IsoCountry:          n.IsoCountry,
		AddressRequirements: n.AddressRequirements,
		Beta:                n.Beta,
		Lata:                n.Lata,
		Locality:            n.Locality,
		RateCenter:          n.RateCenter,
		Latitude:            n.Latitude.value,
		Longitude:           n.Longitude.value,
		Region:              n.Region,
		PostalCode:          n.PostalCode,
	}
}

// NormalizeCapabilities folds the provider's mixed-case capability keys
// (MMS, SMS, voice, fax) onto lower-case fields. An empty map yields nil.
func NormalizeCapabilities(caps map[string]bool) *Capabilities {
	if len(caps) == 0 {
		return nil
	}
	lookup := func(keys ...string) *bool {
		for _, k := range keys {
			if v, ok := caps[k]; ok {
				return &v
			}
		}
		return nil
	}
	return &Capabilities{
		MMS:   lookup("MMS", "mms"),
		SMS:   lookup("SMS", "sms"),
		Voice: lookup("voice", "Voice"),
		Fax:   lookup("fax", "Fax"),
	}
}
