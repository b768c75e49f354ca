package httpclient

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		expected int
	}{
		{name: "missing header uses default", value: "", expected: DefaultRetryAfter},
		{name: "integer seconds", value: "2", expected: 2},
		{name: "zero is honoured", value: "0", expected: 0},
		{name: "http date falls back to default", value: "Wed, 21 Oct 2015 07:28:00 GMT", expected: DefaultRetryAfter},
		{name: "negative falls back to default", value: "-5", expected: DefaultRetryAfter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, parseRetryAfter(tt.value))
		})
	}
}

func TestMaxInterval(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    time.Duration
		retries int
		want    time.Duration
	}{
		{name: "no retries", base: time.Second, retries: 0, want: time.Second},
		{name: "default ceiling", base: DefaultBaseDelay, retries: DefaultMaxRetries, want: 8 * time.Second},
		{name: "fast tests", base: time.Millisecond, retries: 3, want: 8 * time.Millisecond},
		{name: "capped", base: time.Second, retries: 12, want: MaxBackoffInterval},
		{name: "shift would overflow", base: time.Second, retries: 40, want: MaxBackoffInterval},
		{name: "huge retry count", base: time.Second, retries: 1 << 20, want: MaxBackoffInterval},
		{name: "zero base", base: 0, retries: 3, want: MaxBackoffInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := maxInterval(tt.base, tt.retries)
			assert.Equal(t, tt.want, got)
			assert.Positive(t, got)
		})
	}
}

func TestMergeQuery(t *testing.T) {
	t.Parallel()

	merged, err := mergeQuery("https://numbers.example.com/v2/Regulations?PageSize=50", url.Values{
		"EndUserType": {"business"},
	})
	require.NoError(t, err)

	u, err := url.Parse(merged)
	require.NoError(t, err)
	assert.Equal(t, "50", u.Query().Get("PageSize"))
	assert.Equal(t, "business", u.Query().Get("EndUserType"))

	unchanged, err := mergeQuery("https://numbers.example.com/v2/Regulations?Page=2", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://numbers.example.com/v2/Regulations?Page=2", unchanged)

	_, err = mergeQuery("not a url", nil)
	assert.Error(t, err)
}

func TestFault_ErrorAndKind(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	fault := &Fault{Kind: FaultPermanent, Message: "request error after 3 retries", Err: cause}

	assert.ErrorIs(t, fault, cause)
	assert.Contains(t, fault.Error(), "connection reset")
	assert.Equal(t, FaultPermanent, KindOf(fault))
	assert.Equal(t, FaultKind(""), KindOf(cause))

	status := newStatusFault(404, "https://api.example.com/x", "404 Not Found")
	assert.Equal(t, "permanent: HTTP 404 for URL https://api.example.com/x: 404 Not Found", status.Error())
}
