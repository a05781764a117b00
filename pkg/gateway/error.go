// Package gateway holds shared types for the HTTP provider clients.
package gateway

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from a provider gateway. Adapters use the
// status code to classify the failure as retryable or permanent.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error: status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the provider failure is worth retrying:
// rate limits and provider 5xx are transient, everything else is permanent.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// InvalidEndpoint reports whether the provider rejected the recipient
// endpoint itself (expired device token, unknown number). Callers should
// invalidate the endpoint rather than retry.
func (e *APIError) InvalidEndpoint() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}
