package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
)

// Credentials accepted by the mock Twilio API
const (
	MockAccountSID = "AC00000000000000000000000000000001"
	MockAuthToken  = "integration-token"
)

// MockTwilioServerBuilder provides a fluent interface for building mock Twilio servers
type MockTwilioServerBuilder struct {
	countries    []MockCountry
	regulations  []MockRegulation
	pageSize     int
	rateLimited  map[string]bool
	unknownPaths map[string]bool
	requests     *atomic.Int64
}

// NewMockTwilioServerBuilder creates a new mock Twilio server builder
func NewMockTwilioServerBuilder() *MockTwilioServerBuilder {
	return &MockTwilioServerBuilder{
		pageSize:     2,
		rateLimited:  make(map[string]bool),
		unknownPaths: make(map[string]bool),
		requests:     &atomic.Int64{},
	}
}

// WithCountries sets the countries returned by the enumeration
func (b *MockTwilioServerBuilder) WithCountries(countries []MockCountry) *MockTwilioServerBuilder {
	b.countries = countries
	return b
}

// WithRegulations sets the regulations returned by the compliance API
func (b *MockTwilioServerBuilder) WithRegulations(regulations []MockRegulation) *MockTwilioServerBuilder {
	b.regulations = regulations
	return b
}

// WithRateLimitedSearch makes number searches for a country answer 429
func (b *MockTwilioServerBuilder) WithRateLimitedSearch(countryCode string) *MockTwilioServerBuilder {
	b.rateLimited[countryCode] = true
	return b
}

// WithUnknownSearch makes number searches for a country answer 404
func (b *MockTwilioServerBuilder) WithUnknownSearch(countryCode string) *MockTwilioServerBuilder {
	b.unknownPaths[countryCode] = true
	return b
}

// Build creates the httptest server
func (b *MockTwilioServerBuilder) Build() *MockTwilioServer {
	s := &MockTwilioServer{builder: b}
	mux := http.NewServeMux()
	accountPath := "/2010-04-01/Accounts/" + MockAccountSID
	mux.HandleFunc("GET "+accountPath+"/AvailablePhoneNumbers.json", s.handleCountries)
	mux.HandleFunc("GET "+accountPath+"/AvailablePhoneNumbers/{file}", s.handleCountryDetails)
	mux.HandleFunc("GET "+accountPath+"/AvailablePhoneNumbers/{code}/{file}", s.handleSearch)
	mux.HandleFunc("GET /v2/RegulatoryCompliance/Regulations", s.handleRegulations)

	s.Server = httptest.NewServer(s.authenticate(mux))
	return s
}

// MockTwilioServer is a running mock Twilio API
type MockTwilioServer struct {
	*httptest.Server
	builder *MockTwilioServerBuilder
}

// Requests returns how many requests the server has answered
func (s *MockTwilioServer) Requests() int64 {
	return s.builder.requests.Load()
}

func (s *MockTwilioServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.builder.requests.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != MockAccountSID || pass != MockAuthToken {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": 20003, "message": "Authenticate"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *MockTwilioServer) handleCountries(w http.ResponseWriter, r *http.Request) {
	page := 0
	if _, err := fmt.Sscanf(r.URL.Query().Get("Page"), "%d", &page); err != nil {
		page = 0
	}

	size := s.builder.pageSize
	start := page * size
	end := min(start+size, len(s.builder.countries))
	if start > end {
		start = end
	}

	refs := make([]map[string]any, 0, end-start)
	for _, c := range s.builder.countries[start:end] {
		refs = append(refs, map[string]any{
			"country_code": c.Code,
			"country":      c.Name,
			"beta":         c.Beta,
			"uri":          r.URL.Path,
		})
	}

	body := map[string]any{"countries": refs, "next_page_uri": nil}
	if end < len(s.builder.countries) {
		body["next_page_uri"] = fmt.Sprintf("%s?Page=%d", r.URL.Path, page+1)
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *MockTwilioServer) handleCountryDetails(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSuffix(r.PathValue("file"), ".json")
	for _, c := range s.builder.countries {
		if c.Code != code {
			continue
		}
		subresources := make(map[string]string, len(c.NumberTypes))
		for _, t := range c.NumberTypes {
			subresources[t] = r.URL.Path + "/" + t
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"country_code":     c.Code,
			"country":          c.Name,
			"beta":             c.Beta,
			"subresource_uris": subresources,
		})
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"code": 20404, "message": "Not found"})
}

func (s *MockTwilioServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	switch {
	case s.builder.rateLimited[code]:
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"code": 20429, "message": "Too Many Requests"})
		return
	case s.builder.unknownPaths[code]:
		writeJSON(w, http.StatusNotFound, map[string]any{"code": 20404, "message": "Not found"})
		return
	}

	numberType := strings.TrimSuffix(r.PathValue("file"), ".json")
	phone := fmt.Sprintf("+44%s0000001", strings.ToLower(numberType[:1]))
	writeJSON(w, http.StatusOK, map[string]any{
		"available_phone_numbers": []map[string]any{{
			"phone_number":  phone,
			"friendly_name": phone,
			"iso_country":   code,
			"capabilities":  map[string]bool{"SMS": r.URL.Query().Get("SmsEnabled") != "false", "voice": true, "MMS": false},
			"latitude":      "51.5072",
			"longitude":     "-0.1276",
			"beta":          false,
		}},
		"next_page_uri": nil,
	})
}

func (s *MockTwilioServer) handleRegulations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("EndUserType") != "business" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"code": 20001, "message": "EndUserType is required"})
		return
	}

	results := []map[string]any{}
	for _, reg := range s.builder.regulations {
		if reg.IsoCountry != query.Get("IsoCountry") {
			continue
		}
		if nt := query.Get("NumberType"); nt != "" && nt != reg.NumberType {
			continue
		}
		var requirements any
		if reg.Requirements != "" {
			requirements = json.RawMessage(reg.Requirements)
		}
		results = append(results, map[string]any{
			"sid":           reg.Sid,
			"friendly_name": reg.FriendlyName,
			"iso_country":   reg.IsoCountry,
			"number_type":   reg.NumberType,
			"end_user_type": "business",
			"requirements":  requirements,
			"url":           s.URL + "/v2/RegulatoryCompliance/Regulations/" + reg.Sid,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"meta":    map[string]any{"next_page_url": nil},
	})
}

// CountryCodes returns the served country codes in ascending order
func (s *MockTwilioServer) CountryCodes() []string {
	return sortedCodes(s.builder.countries)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
