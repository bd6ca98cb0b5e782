package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// UpstreamError is a non-2xx response from an embedding, reranker or chat
// provider.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.StatusCode, e.Body)
}

// KindFromStatus maps an upstream HTTP status to an error kind.
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindProviderAuth
	case status == http.StatusTooManyRequests:
		return KindProviderRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindProviderTimeout
	default:
		return KindInternal
	}
}

// ClassifyProviderErr maps a failed provider call to an error kind:
// upstream statuses by KindFromStatus, transport timeouts and context
// deadlines to KindProviderTimeout, everything else to KindInternal.
func ClassifyProviderErr(err error) Kind {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return KindFromStatus(upstream.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindProviderTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindProviderTimeout
	}
	return KindInternal
}
