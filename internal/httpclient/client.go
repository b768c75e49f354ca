// Package httpclient provides the authenticated, retrying HTTP transport used
// to talk to the telephony provider.
package httpclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/stacklok/phone-registry-server/internal/telemetry"
)

const (
	// DefaultTimeout is the per-call timeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt
	DefaultMaxRetries = 3

	// DefaultBaseDelay is the first network-error backoff; it doubles per retry
	DefaultBaseDelay = time.Second

	// MaxBackoffInterval caps a single network-error wait
	MaxBackoffInterval = 10 * time.Minute

	// DefaultRetryAfter is used when a 429 response carries no usable Retry-After header
	DefaultRetryAfter = 60

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "phone-registry-server/1.0"

	// maxErrorBody bounds how much of an error response ends up in a Fault
	maxErrorBody = 512
)

// Client is an interface for provider HTTP operations
type Client interface {
	// Do performs a request and returns the response body. The query values
	// are merged into any query already present on rawURL.
	Do(ctx context.Context, method, rawURL string, query url.Values) ([]byte, error)
}

// Option configures the DefaultClient
type Option func(*DefaultClient)

// WithTimeout sets the per-call timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *DefaultClient) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithBasicAuth precomputes the Authorization header sent on every call
func WithBasicAuth(username, password string) Option {
	return func(c *DefaultClient) {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		c.authHeader = "Basic " + credentials
	}
}

// WithMaxRetries sets how many times a call is retried after the first attempt
func WithMaxRetries(n int) Option {
	return func(c *DefaultClient) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithBaseDelay sets the initial network-error backoff
func WithBaseDelay(d time.Duration) Option {
	return func(c *DefaultClient) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithRetryAfterUnit sets the duration of one Retry-After unit (one second by default)
func WithRetryAfterUnit(d time.Duration) Option {
	return func(c *DefaultClient) {
		if d > 0 {
			c.retryAfterUnit = d
		}
	}
}

// WithRateLimit paces outgoing attempts to rps requests per second. Zero disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *DefaultClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *DefaultClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithMetrics records request outcomes and retries
func WithMetrics(m *telemetry.ProviderMetrics) Option {
	return func(c *DefaultClient) {
		c.metrics = m
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client         *http.Client
	authHeader     string
	maxRetries     int
	baseDelay      time.Duration
	retryAfterUnit time.Duration
	limiter        *rate.Limiter
	metrics        *telemetry.ProviderMetrics
}

var _ Client = (*DefaultClient)(nil)

// NewDefaultClient creates a new client with the given options
func NewDefaultClient(opts ...Option) *DefaultClient {
	c := &DefaultClient{
		client:         &http.Client{Timeout: DefaultTimeout},
		maxRetries:     DefaultMaxRetries,
		baseDelay:      DefaultBaseDelay,
		retryAfterUnit: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// attemptError is returned from a single attempt. It carries the fault and,
// for throttled responses, the wait requested by the provider.
type attemptError struct {
	fault      *Fault
	retryAfter *backoff.RetryAfterError
}

func (e *attemptError) Error() string {
	return e.fault.Error()
}

func (e *attemptError) Unwrap() []error {
	if e.retryAfter != nil {
		return []error{e.fault, e.retryAfter}
	}
	return []error{e.fault}
}

// Do performs a request with rate limit and network error retries
func (c *DefaultClient) Do(ctx context.Context, method, rawURL string, query url.Values) ([]byte, error) {
	target, err := mergeQuery(rawURL, query)
	if err != nil {
		return nil, &Fault{Kind: FaultPermanent, URL: rawURL, Message: "invalid request URL", Err: err}
	}

	expBackOff := &backoff.ExponentialBackOff{
		InitialInterval:     c.baseDelay,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         maxInterval(c.baseDelay, c.maxRetries),
	}

	body, err := backoff.Retry(ctx,
		func() ([]byte, error) {
			return c.attempt(ctx, method, target)
		},
		backoff.WithBackOff(expBackOff),
		backoff.WithMaxTries(uint(c.maxRetries)+1),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			reason := string(KindOf(err))
			c.metrics.RecordRetry(ctx, reason)
			slog.WarnContext(ctx, "Provider request failed, retrying",
				"url", target,
				"reason", reason,
				"wait", next.String(),
				"error", err)
		}),
	)
	if err != nil {
		fault := c.finalFault(err, target)
		c.metrics.RecordRequest(ctx, string(fault.Kind))
		return nil, fault
	}

	c.metrics.RecordRequest(ctx, "ok")
	return body, nil
}

// finalFault maps whatever ended the retry loop onto the public fault vocabulary
func (c *DefaultClient) finalFault(err error, target string) *Fault {
	var fault *Fault
	if !errors.As(err, &fault) {
		return &Fault{Kind: FaultPermanent, URL: target, Message: "request aborted", Err: err}
	}

	switch fault.Kind {
	case FaultRateLimited:
		return &Fault{
			Kind:       FaultRateLimited,
			StatusCode: fault.StatusCode,
			URL:        target,
			Message:    fmt.Sprintf("rate limit exceeded after %d retries", c.maxRetries),
		}
	case FaultTransient:
		return &Fault{
			Kind:    FaultPermanent,
			URL:     target,
			Message: fmt.Sprintf("request error after %d retries", c.maxRetries),
			Err:     fault.Err,
		}
	default:
		return fault
	}
}

// attempt performs exactly one HTTP round trip
func (c *DefaultClient) attempt(ctx context.Context, method, target string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(&Fault{Kind: FaultPermanent, URL: target, Message: "rate limiter wait failed", Err: err})
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, backoff.Permanent(&Fault{Kind: FaultPermanent, URL: target, Message: "failed to create request", Err: err})
	}

	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if c.authHeader != "" {
		req.Header.Set("Authorization", c.authHeader)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(&Fault{Kind: FaultPermanent, URL: target, Message: "request cancelled", Err: ctx.Err()})
		}
		return nil, &attemptError{fault: &Fault{Kind: FaultTransient, URL: target, Message: "failed to execute request", Err: err}}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &attemptError{
			fault: &Fault{
				Kind:       FaultRateLimited,
				StatusCode: resp.StatusCode,
				URL:        target,
				Message:    resp.Status,
			},
			retryAfter: &backoff.RetryAfterError{Duration: time.Duration(wait) * c.retryAfterUnit},
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		message := resp.Status
		if len(excerpt) > 0 {
			message = fmt.Sprintf("%s: %s", resp.Status, excerpt)
		}
		return nil, backoff.Permanent(newStatusFault(resp.StatusCode, target, message))
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, backoff.Permanent(&Fault{
			Kind:    FaultPermanent,
			URL:     target,
			Message: fmt.Sprintf("response size %d bytes exceeds maximum allowed size of %d bytes", resp.ContentLength, MaxResponseSize),
		})
	}

	// +1 to detect if the limit is exceeded
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, &attemptError{fault: &Fault{Kind: FaultTransient, URL: target, Message: "failed to read response body", Err: err}}
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, backoff.Permanent(&Fault{
			Kind:    FaultPermanent,
			URL:     target,
			Message: fmt.Sprintf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize),
		})
	}

	return body, nil
}

// maxInterval returns base doubled retries times, capped at MaxBackoffInterval
func maxInterval(base time.Duration, retries int) time.Duration {
	if base <= 0 {
		return MaxBackoffInterval
	}
	interval := base
	for i := 0; i < retries; i++ {
		if interval >= MaxBackoffInterval/2 {
			return MaxBackoffInterval
		}
		interval *= 2
	}
	return min(interval, MaxBackoffInterval)
}

// parseRetryAfter reads an integer-seconds Retry-After value
func parseRetryAfter(value string) int {
	if value == "" {
		return DefaultRetryAfter
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return DefaultRetryAfter
	}
	return seconds
}

// mergeQuery adds query to the query string already present on rawURL
func mergeQuery(rawURL string, query url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("URL %q must be absolute", rawURL)
	}
	if len(query) == 0 {
		return u.String(), nil
	}
	merged := u.Query()
	for key, values := range query {
		for _, v := range values {
			merged.Add(key, v)
		}
	}
	u.RawQuery = merged.Encode()
	return u.String(), nil
}
