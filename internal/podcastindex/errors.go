package podcastindex

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"pullapod/internal/services"
)

// ErrNotFound reports a lookup the index answered with no record.
var ErrNotFound = fmt.Errorf("podcastindex: %w", services.ErrNotFound)

// APIError is a non-success response from the API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("podcastindex: %s failed (%d %s)", e.Endpoint, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("podcastindex: %s failed (%d): %s", e.Endpoint, e.StatusCode, body)
}

// Unwrap maps the status code onto the shared error markers.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return services.ErrConfiguration
	case e.StatusCode == http.StatusNotFound:
		return services.ErrNotFound
	case e.RateLimited() || e.StatusCode >= 500:
		return services.ErrTransient
	default:
		return services.ErrUpstream
	}
}

// RateLimited reports a 429 response.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// FailureKind is the coarse class of a failed request.
type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureNetwork     FailureKind = "network"
	FailureRateLimited FailureKind = "rate_limited"
	FailureOther       FailureKind = "other"
)

// Classify maps err onto a FailureKind. Transport problems (DNS, refused or
// reset connections, timeouts) are network failures; 429 responses are rate
// limits; everything else is other.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.RateLimited() {
			return FailureRateLimited
		}
		return FailureOther
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureNetwork
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return FailureNetwork
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return FailureNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return FailureNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return FailureNetwork
	}
	return FailureOther
}
