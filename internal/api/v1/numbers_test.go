package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/phone-registry-server/internal/httpclient"
	"github.com/stacklok/phone-registry-server/internal/provider"
)

func TestSearchNumbers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	sms := true
	f.provider.EXPECT().SearchAvailableNumbers(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req provider.SearchRequest) ([]provider.AvailableNumber, error) {
			assert.Equal(t, "US", req.CountryCode)
			assert.Equal(t, "toll-free", req.NumberType)
			require.NotNil(t, req.SmsEnabled)
			assert.True(t, *req.SmsEnabled)
			assert.Nil(t, req.VoiceEnabled)
			return []provider.AvailableNumber{{
				PhoneNumber:  strPtr("+18005550100"),
				Capabilities: &provider.Capabilities{SMS: &sms},
			}}, nil
		})

	rr := serve(t, f.router(), "POST", "/numbers/search",
		`{"country_code":"us","number_type":"toll-free","sms_enabled":true}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "+18005550100", body[0]["phone_number"])
	caps, ok := body[0]["capabilities"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, caps["sms"])
	assert.Nil(t, caps["voice"])
}

func TestSearchNumbers_EmptyResult(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.provider.EXPECT().SearchAvailableNumbers(gomock.Any(), gomock.Any()).Return(nil, nil)

	rr := serve(t, f.router(), "POST", "/numbers/search", `{"country_code":"GB","number_type":"mobile"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestSearchNumbers_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed body", body: `{"country_code":`},
		{name: "country code too long", body: `{"country_code":"USA","number_type":"local"}`},
		{name: "missing country code", body: `{"number_type":"local"}`},
		{name: "country code with digits", body: `{"country_code":"U1","number_type":"local"}`},
		{name: "unsupported number type", body: `{"country_code":"US","number_type":"toll_free"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			rr := serve(t, f.router(), "POST", "/numbers/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestSearchNumbers_FaultMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "permanent fault",
			err:        &httpclient.Fault{Kind: httpclient.FaultPermanent, StatusCode: 404, Message: "not found"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "rate limited",
			err:        &httpclient.Fault{Kind: httpclient.FaultRateLimited, StatusCode: 429, Message: "too many requests"},
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "unexpected error",
			err:        errors.New("failed to decode response"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			f.provider.EXPECT().SearchAvailableNumbers(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			rr := serve(t, f.router(), "POST", "/numbers/search", `{"country_code":"GB","number_type":"local"}`)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestSearchNumbers_NoCredentials(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rr := serve(t, f.unconfigured(), "POST", "/numbers/search", `{"country_code":"GB","number_type":"local"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, errorMessage(t, rr), "credentials")
}
