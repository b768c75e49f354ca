package provider_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/phone-registry-server/internal/httpclient"
	"github.com/stacklok/phone-registry-server/internal/provider"
)

const testAccountSID = "AC0123456789"

// newTestServer creates a new test server with keep-alives disabled
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

func newTestClient(t *testing.T, serverURL string) provider.Client {
	t.Helper()
	httpClient := httpclient.NewDefaultClient(
		httpclient.WithTimeout(5*time.Second),
		httpclient.WithBaseDelay(time.Millisecond),
		httpclient.WithRetryAfterUnit(time.Millisecond),
		httpclient.WithBasicAuth(testAccountSID, "token"),
	)
	client, err := provider.New(httpClient, testAccountSID,
		provider.WithBaseURL(serverURL),
		provider.WithNumbersBaseURL(serverURL+"/"),
	)
	require.NoError(t, err)
	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := provider.New(nil, testAccountSID)
	assert.Error(t, err)

	_, err = provider.New(httpclient.NewDefaultClient(), "")
	assert.Error(t, err)
}

func TestListCountries_FollowsPagination(t *testing.T) {
	t.Parallel()

	listPath := "/2010-04-01/Accounts/" + testAccountSID + "/AvailablePhoneNumbers.json"
	pages := map[string]map[string]any{
		"": {
			"countries": []map[string]any{
				{"country_code": "US", "country": "United States"},
				{"country_code": "GB", "country": "United Kingdom"},
			},
			"next_page_uri": listPath + "?Page=1",
		},
		"1": {
			"countries": []map[string]any{
				{"country_code": "DE", "country": "Germany"},
				{"country_code": "FR", "country": "France"},
			},
			"next_page_uri": listPath + "?Page=2",
		},
		"2": {
			"countries": []map[string]any{
				{"country_code": "JP", "country": "Japan", "beta": true},
			},
			"next_page_uri": nil,
		},
	}

	var mu sync.Mutex
	calls := 0
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		assert.Equal(t, listPath, r.URL.Path)
		page, ok := pages[r.URL.Query().Get("Page")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(t, w, page)
	}))
	defer server.Close()

	countries, err := newTestClient(t, server.URL).ListCountries(context.Background())
	require.NoError(t, err)

	codes := make([]string, 0, len(countries))
	for _, c := range countries {
		codes = append(codes, c.CountryCode)
	}
	assert.Equal(t, []string{"US", "GB", "DE", "FR", "JP"}, codes)
	assert.True(t, countries[4].Beta)
	assert.Equal(t, 3, calls)
}

func TestListCountries_PageFailureFailsCall(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("Page") == "1" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(t, w, map[string]any{
			"countries":     []map[string]any{{"country_code": "US"}},
			"next_page_uri": r.URL.Path + "?Page=1",
		})
	}))
	defer server.Close()

	countries, err := newTestClient(t, server.URL).ListCountries(context.Background())
	require.Error(t, err)
	assert.Nil(t, countries)
	assert.True(t, httpclient.IsPermanent(err))
}

func TestListCountries_MalformedBody(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"countries": [`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).ListCountries(context.Background())
	require.Error(t, err)
	assert.True(t, httpclient.IsPermanent(err))
	assert.Contains(t, err.Error(), "malformed response body")
}

func TestGetCountryDetails(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2010-04-01/Accounts/"+testAccountSID+"/AvailablePhoneNumbers/GB.json", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"country_code": "GB",
			"country":      "United Kingdom",
			"beta":         false,
			"subresource_uris": map[string]string{
				"local":  "/local.json",
				"mobile": "/mobile.json",
			},
		})
	}))
	defer server.Close()

	details, err := newTestClient(t, server.URL).GetCountryDetails(context.Background(), "GB")
	require.NoError(t, err)
	assert.Equal(t, "United Kingdom", details.Country)

	types := provider.ExtractNumberTypes(details)
	assert.True(t, types.Local)
	assert.True(t, types.Mobile)
	assert.False(t, types.TollFree)
}

func TestListRegulations_QueryAndPagination(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var queries []url.Values
	var serverURL string
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/RegulatoryCompliance/Regulations", r.URL.Path)
		mu.Lock()
		queries = append(queries, r.URL.Query())
		mu.Unlock()

		if r.URL.Query().Get("Page") == "1" {
			writeJSON(t, w, map[string]any{
				"results": []map[string]any{
					{"sid": "RN2", "friendly_name": "Second", "iso_country": "DE", "number_type": "mobile", "end_user_type": "individual"},
				},
				"meta": map[string]any{"next_page_url": nil},
			})
			return
		}
		writeJSON(t, w, map[string]any{
			"results": []map[string]any{
				{
					"sid":           "RN1",
					"friendly_name": "First",
					"iso_country":   "DE",
					"number_type":   "local",
					"requirements":  map[string]any{"end_user": []any{map[string]any{"name": "Business"}}},
					"url":           "https://example.com/RN1",
				},
			},
			"meta": map[string]any{
				"next_page_url": serverURL + "/v2/RegulatoryCompliance/Regulations?PageToken=abc&Page=1",
			},
		})
	}))
	defer server.Close()
	serverURL = server.URL

	regulations, err := newTestClient(t, server.URL).ListRegulations(context.Background(), "DE", "local", true)
	require.NoError(t, err)
	require.Len(t, regulations, 2)

	assert.Equal(t, "RN1", regulations[0].Sid)
	assert.Equal(t, provider.EndUserTypeBusiness, regulations[0].EndUserType)
	assert.JSONEq(t, `{"end_user":[{"name":"Business"}]}`, string(regulations[0].Requirements))
	assert.Equal(t, "RN2", regulations[1].Sid)
	assert.Equal(t, provider.EndUserTypeBusiness, regulations[1].EndUserType, "end user type is forced to business")
	assert.Nil(t, regulations[1].Requirements)

	require.Len(t, queries, 2)
	assert.Equal(t, "business", queries[0].Get("EndUserType"))
	assert.Equal(t, "DE", queries[0].Get("IsoCountry"))
	assert.Equal(t, "true", queries[0].Get("IncludeConstraints"))
	assert.Equal(t, "local", queries[0].Get("NumberType"))

	// the second page uses the next URL verbatim
	assert.Empty(t, queries[1].Get("EndUserType"))
	assert.Empty(t, queries[1].Get("IsoCountry"))
	assert.Equal(t, "abc", queries[1].Get("PageToken"))
}

func TestListRegulations_OmitsEmptyNumberType(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["NumberType"]
		assert.False(t, present)
		assert.Equal(t, "false", r.URL.Query().Get("IncludeConstraints"))
		writeJSON(t, w, map[string]any{"results": []any{}, "meta": map[string]any{}})
	}))
	defer server.Close()

	regulations, err := newTestClient(t, server.URL).ListRegulations(context.Background(), "US", "", false)
	require.NoError(t, err)
	assert.Empty(t, regulations)
}

func TestSearchAvailableNumbers(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var requests []*url.URL
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL)
		mu.Unlock()

		if r.URL.Query().Get("Page") == "1" {
			writeJSON(t, w, map[string]any{
				"available_phone_numbers": []map[string]any{
					{"phone_number": "+15005550002", "capabilities": map[string]bool{"sms": true, "Voice": false}},
				},
			})
			return
		}
		writeJSON(t, w, map[string]any{
			"available_phone_numbers": []map[string]any{
				{
					"phone_number":  "+15005550001",
					"friendly_name": "(500) 555-0001",
					"iso_country":   "US",
					"capabilities":  map[string]bool{"MMS": true, "SMS": true, "voice": true, "fax": false},
					"latitude":      "37.7749",
					"longitude":     -122.4194,
					"region":        "CA",
				},
			},
			"next_page_uri": r.URL.Path + "?Page=1",
		})
	}))
	defer server.Close()

	smsEnabled := true
	numbers, err := newTestClient(t, server.URL).SearchAvailableNumbers(context.Background(), provider.SearchRequest{
		CountryCode: "us",
		NumberType:  "toll-free",
		SmsEnabled:  &smsEnabled,
	})
	require.NoError(t, err)
	require.Len(t, numbers, 2)

	require.Len(t, requests, 2)
	assert.Equal(t, "/2010-04-01/Accounts/"+testAccountSID+"/AvailablePhoneNumbers/US/TollFree.json", requests[0].Path)
	assert.Equal(t, "true", requests[0].Query().Get("SmsEnabled"))
	_, voiceSet := requests[0].Query()["VoiceEnabled"]
	assert.False(t, voiceSet)
	assert.Empty(t, requests[1].Query().Get("SmsEnabled"))

	first := numbers[0]
	assert.Equal(t, "+15005550001", *first.PhoneNumber)
	require.NotNil(t, first.Capabilities)
	assert.True(t, *first.Capabilities.MMS)
	assert.True(t, *first.Capabilities.SMS)
	assert.True(t, *first.Capabilities.Voice)
	assert.False(t, *first.Capabilities.Fax)
	require.NotNil(t, first.Latitude)
	assert.InDelta(t, 37.7749, *first.Latitude, 1e-9)
	assert.InDelta(t, -122.4194, *first.Longitude, 1e-9)

	second := numbers[1]
	assert.Nil(t, second.FriendlyName)
	assert.Nil(t, second.Latitude)
	assert.Nil(t, second.Capabilities.MMS)
	assert.True(t, *second.Capabilities.SMS)
	assert.False(t, *second.Capabilities.Voice)
}

func TestSearchAvailableNumbers_InvalidType(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	for _, numberType := range []string{"", "tollfree", "national", "MOBILE"} {
		t.Run(fmt.Sprintf("type=%q", numberType), func(t *testing.T) {
			t.Parallel()
			_, err := newTestClient(t, server.URL).SearchAvailableNumbers(context.Background(), provider.SearchRequest{
				CountryCode: "US",
				NumberType:  numberType,
			})
			assert.ErrorIs(t, err, provider.ErrInvalidSearchType)
		})
	}
}

func TestSearchAvailableNumbers_RateLimited(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).SearchAvailableNumbers(context.Background(), provider.SearchRequest{
		CountryCode: "US",
		NumberType:  "local",
	})
	require.Error(t, err)
	assert.True(t, httpclient.IsRateLimited(err))
}
