// Package channel defines the uniform adapter contract every delivery medium
// implements, plus the shared failure classification and rendering helpers.
package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/storelane/notification-service/internal/model"
	"github.com/storelane/notification-service/pkg/gateway"
)

// Result is the outcome of a single adapter send.
type Result struct {
	Channel          model.Channel
	ExternalID       string   // provider message identifier, used to correlate callbacks
	Delivered        bool     // true only when the provider confirmed delivery synchronously
	Response         string   // opaque provider response metadata
	InvalidEndpoints []string // endpoints the provider rejected as dead; invalidated by the orchestrator
	Err              error    // nil on success; otherwise an *Error
}

// Success reports whether the send was accepted by the provider.
func (r Result) Success() bool {
	return r.Err == nil
}

// Adapter sends a notification over one channel. Implementations own their
// provider-specific formatting and failure classification; errors never
// escape unclassified.
type Adapter interface {
	Channel() model.Channel
	Send(ctx context.Context, n model.Notification, ep model.RecipientEndpoints) Result
}

// Error is a classified channel failure.
type Error struct {
	Reason          string
	Retryable       bool
	InvalidEndpoint bool // the recipient endpoint itself is dead; invalidate, don't retry
}

func (e *Error) Error() string {
	return e.Reason
}

// Transient builds a retryable failure.
func Transient(format string, args ...interface{}) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...), Retryable: true}
}

// Permanent builds a non-retryable failure.
func Permanent(format string, args ...interface{}) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// BadEndpoint builds a permanent failure that should also invalidate the
// recipient endpoint.
func BadEndpoint(format string, args ...interface{}) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...), InvalidEndpoint: true}
}

// Classify converts a provider client error into a channel Error. Gateway
// responses are classified by status code; timeouts and transport failures
// count as transient.
func Classify(err error) *Error {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.InvalidEndpoint():
			return &Error{Reason: apiErr.Error(), InvalidEndpoint: true}
		case apiErr.Retryable():
			return &Error{Reason: apiErr.Error(), Retryable: true}
		default:
			return &Error{Reason: apiErr.Error()}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Reason: err.Error(), Retryable: true}
	}

	// Transport-level failures (DNS, connection reset) are worth retrying.
	return &Error{Reason: err.Error(), Retryable: true}
}

// AsError extracts the classified *Error from a Result error, classifying on
// the fly if a raw error slipped through.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr
	}
	return Classify(err)
}
