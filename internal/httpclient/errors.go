package httpclient

import (
	"errors"
	"fmt"
)

// FaultKind classifies a failed provider call
type FaultKind string

const (
	// FaultTransient is a network-level failure that may succeed on retry.
	// It never escapes the client; exhausted transient faults become permanent.
	FaultTransient FaultKind = "transient"

	// FaultRateLimited means the provider kept throttling after all retries
	FaultRateLimited FaultKind = "rate_limited"

	// FaultPermanent is a failure that is not retried
	FaultPermanent FaultKind = "permanent"
)

// Fault is the error returned by Client for every failed call
type Fault struct {
	Kind       FaultKind
	StatusCode int
	URL        string
	Message    string
	Err        error
}

// Error implements the error interface
func (f *Fault) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s: HTTP %d for URL %s: %s", f.Kind, f.StatusCode, f.URL, f.Message)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying error
func (f *Fault) Unwrap() error {
	return f.Err
}

// newStatusFault creates a permanent fault for an HTTP error status
func newStatusFault(statusCode int, url, message string) *Fault {
	return &Fault{
		Kind:       FaultPermanent,
		StatusCode: statusCode,
		URL:        url,
		Message:    message,
	}
}

// KindOf returns the fault kind carried by err, or an empty string when err
// is not a Fault.
func KindOf(err error) FaultKind {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind
	}
	return ""
}

// IsRateLimited reports whether err is a rate limit fault
func IsRateLimited(err error) bool {
	return KindOf(err) == FaultRateLimited
}

// IsPermanent reports whether err is a permanent fault
func IsPermanent(err error) bool {
	return KindOf(err) == FaultPermanent
}
