package httpclient_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/phone-registry-server/internal/httpclient"
)

// newTestServer creates a new test server with keep-alives disabled.
// This prevents flaky tests when running in parallel, as closing a server
// with keep-alives enabled can affect other tests sharing the HTTP transport.
func newTestServer(handler http.Handler) *httptest.Server {
	server := httptest.NewServer(handler)
	server.Config.SetKeepAlivesEnabled(false)
	return server
}

// fastClient returns a client whose waits are scaled down for tests
func fastClient(opts ...httpclient.Option) *httpclient.DefaultClient {
	base := []httpclient.Option{
		httpclient.WithTimeout(5 * time.Second),
		httpclient.WithBaseDelay(time.Millisecond),
		httpclient.WithRetryAfterUnit(10 * time.Millisecond),
	}
	return httpclient.NewDefaultClient(append(base, opts...)...)
}

func TestDefaultClient_Do_Success(t *testing.T) {
	t.Parallel()

	var received http.Header
	var receivedQuery url.Values
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		receivedQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := fastClient(httpclient.WithBasicAuth("AC123", "secret"))
	body, err := client.Do(context.Background(), http.MethodGet, server.URL+"/path?Page=1", url.Values{"IsoCountry": {"US"}})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	expectedAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("AC123:secret"))
	assert.Equal(t, expectedAuth, received.Get("Authorization"))
	assert.Equal(t, "application/json", received.Get("Accept"))
	assert.Equal(t, httpclient.UserAgent, received.Get("User-Agent"))
	assert.Equal(t, "1", receivedQuery.Get("Page"))
	assert.Equal(t, "US", receivedQuery.Get("IsoCountry"))
}

func TestDefaultClient_Do_HTTPErrorsArePermanent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		statusCode int
	}{
		{name: "400 Bad Request", statusCode: http.StatusBadRequest},
		{name: "401 Unauthorized", statusCode: http.StatusUnauthorized},
		{name: "404 Not Found", statusCode: http.StatusNotFound},
		{name: "500 Internal Server Error", statusCode: http.StatusInternalServerError},
		{name: "503 Service Unavailable", statusCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
			}))
			defer server.Close()

			_, err := fastClient().Do(context.Background(), http.MethodGet, server.URL, nil)

			require.Error(t, err)
			assert.True(t, httpclient.IsPermanent(err))

			var fault *httpclient.Fault
			require.ErrorAs(t, err, &fault)
			assert.Equal(t, tt.statusCode, fault.StatusCode)
			assert.Contains(t, fault.Error(), "nope")
			assert.Equal(t, int32(1), calls.Load(), "HTTP errors must not be retried")
		})
	}
}

func TestDefaultClient_Do_RateLimitWaitsRetryAfter(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	start := time.Now()
	_, err := fastClient().Do(context.Background(), http.MethodGet, server.URL, nil)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond, "retry must wait for Retry-After units")
}

func TestDefaultClient_Do_RateLimitExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := fastClient(httpclient.WithMaxRetries(3)).Do(context.Background(), http.MethodGet, server.URL, nil)

	require.Error(t, err)
	assert.True(t, httpclient.IsRateLimited(err))
	assert.False(t, httpclient.IsPermanent(err))
	assert.Contains(t, err.Error(), "rate limit exceeded after 3 retries")
	assert.Equal(t, int32(4), calls.Load(), "one attempt plus three retries")
}

func TestDefaultClient_Do_NetworkErrorRetriedThenPermanent(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		hj, ok := w.(http.Hijacker)
		if !ok {
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer server.Close()

	_, err := fastClient().Do(context.Background(), http.MethodGet, server.URL, nil)

	require.Error(t, err)
	assert.True(t, httpclient.IsPermanent(err))
	assert.Contains(t, err.Error(), "request error after 3 retries")
	assert.Equal(t, int32(4), calls.Load())
}

func TestDefaultClient_Do_NetworkErrorRecovers(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
				}
			}
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	body, err := fastClient().Do(context.Background(), http.MethodGet, server.URL, nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDefaultClient_Do_ContextCancelledDuringWait(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := httpclient.NewDefaultClient(httpclient.WithTimeout(5 * time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Do(ctx, http.MethodGet, server.URL, nil)

	require.Error(t, err)
	assert.True(t, httpclient.IsPermanent(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDefaultClient_Do_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := fastClient().Do(context.Background(), http.MethodGet, "/relative/only", nil)

	require.Error(t, err)
	assert.True(t, httpclient.IsPermanent(err))
}

func TestDefaultClient_Do_RateLimitPacing(t *testing.T) {
	t.Parallel()

	server := newTestServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := fastClient(httpclient.WithRateLimit(20))
	start := time.Now()
	for range 3 {
		_, err := client.Do(context.Background(), http.MethodGet, server.URL, nil)
		require.NoError(t, err)
	}

	// burst of one, then 50ms per request
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
