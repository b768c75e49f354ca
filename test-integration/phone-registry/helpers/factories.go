package helpers

import (
	"sort"
	"strings"
)

// MockCountry is one country served by the mock Twilio API
type MockCountry struct {
	Code        string
	Name        string
	Beta        bool
	NumberTypes []string
}

// MockRegulation is one regulation served by the mock Twilio API
type MockRegulation struct {
	Sid          string
	FriendlyName string
	IsoCountry   string
	NumberType   string
	Requirements string
}

// RegulationSID builds a 34 character regulation sid from a short suffix
func RegulationSID(suffix string) string {
	return "RN" + strings.Repeat("0", 32-len(suffix)) + suffix
}

// DefaultCountries returns the country fixtures used by the suite
func DefaultCountries() []MockCountry {
	return []MockCountry{
		{Code: "US", Name: "United States", NumberTypes: []string{"local", "toll_free"}},
		{Code: "GB", Name: "United Kingdom", NumberTypes: []string{"mobile", "local"}},
		{Code: "DE", Name: "Germany", Beta: true, NumberTypes: []string{"mobile", "national"}},
	}
}

// DefaultRegulations returns the regulation fixtures used by the suite
func DefaultRegulations() []MockRegulation {
	return []MockRegulation{
		{
			Sid:          RegulationSID("1"),
			FriendlyName: "United Kingdom: Mobile - Business",
			IsoCountry:   "GB",
			NumberType:   "mobile",
			Requirements: `{"end_user":[{"detailed_fields":[{"friendly_name":"Business Name","machine_name":"business_name"}]}]}`,
		},
		{
			Sid:          RegulationSID("2"),
			FriendlyName: "United Kingdom: Local - Business",
			IsoCountry:   "GB",
			NumberType:   "local",
			Requirements: `{"supporting_document":[[{"name":"Proof of address","accepted_documents":[{"name":"Utility bill"}]}]]}`,
		},
		{
			Sid:          RegulationSID("3"),
			FriendlyName: "United Kingdom: Toll Free - Business",
			IsoCountry:   "GB",
			NumberType:   "toll_free",
		},
		{
			Sid:          RegulationSID("4"),
			FriendlyName: "United States: Local - Business",
			IsoCountry:   "US",
			NumberType:   "local",
		},
	}
}

// sortedCodes returns the country codes in ascending order
func sortedCodes(countries []MockCountry) []string {
	codes := make([]string, 0, len(countries))
	for _, c := range countries {
		codes = append(codes, c.Code)
	}
	sort.Strings(codes)
	return codes
}
