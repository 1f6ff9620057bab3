package classify

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Kind tags a ClassifiedError.
type Kind string

const (
	KindGeneric       Kind = "generic"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindModelNotFound Kind = "model_not_found"
)

// ClassifiedError is the outcome of classifying a failed upstream call.
// It is built once and not mutated; WithListing returns a copy.
type ClassifiedError struct {
	Kind    Kind
	Message string
	// RetryAfterSeconds is nil when the upstream gave no hint. Nil means
	// "unknown", never zero.
	RetryAfterSeconds *int
	// AvailableModels is the opaque model listing attached to ModelNotFound.
	AvailableModels json.RawMessage
	// ListingError is the message of a failed model listing call.
	ListingError string
}

func (e *ClassifiedError) Error() string {
	if e.RetryAfterSeconds != nil {
		return fmt.Sprintf("%s (retry after %ds): %s", e.Kind, *e.RetryAfterSeconds, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// HTTPStatus maps the kind onto the status returned to clients.
func (e *ClassifiedError) HTTPStatus() int {
	switch e.Kind {
	case KindQuotaExceeded:
		return http.StatusTooManyRequests
	case KindModelNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a client may retry the same request later.
func (e *ClassifiedError) Retryable() bool { return e.Kind == KindQuotaExceeded }

// NeedsModelListing reports whether the caller should fetch the model listing.
func (e *ClassifiedError) NeedsModelListing() bool { return e.Kind == KindModelNotFound }

// WithListing returns a copy carrying the result of the model listing call.
// A listing failure is recorded next to the original classification.
func (e *ClassifiedError) WithListing(models json.RawMessage, err error) *ClassifiedError {
	out := *e
	if err != nil {
		out.AvailableModels = nil
		out.ListingError = err.Error()
		return &out
	}
	out.AvailableModels = models
	out.ListingError = ""
	return &out
}

// QuotaExceeded builds a quota classification without going through the pattern table,
// used when the service itself refuses a call.
func QuotaExceeded(message string, retryAfterSeconds *int) *ClassifiedError {
	return &ClassifiedError{Kind: KindQuotaExceeded, Message: message, RetryAfterSeconds: retryAfterSeconds}
}

// Generic wraps a message without classification.
func Generic(message string) *ClassifiedError {
	return &ClassifiedError{Kind: KindGeneric, Message: message}
}
