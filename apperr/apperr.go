// Package apperr defines the error kinds shared across the RAG engine and
// their HTTP status mapping. Components wrap causes with a kind at their
// boundary; the HTTP layer translates kinds to responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for API mapping and recovery decisions.
type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindUnsupportedFile    Kind = "unsupported_file_type"
	KindEmptyFile          Kind = "empty_file"
	KindEmptyText          Kind = "empty_text"
	KindUnextractablePDF   Kind = "unextractable_pdf"
	KindNotFound           Kind = "not_found"
	KindPipelineNotReady   Kind = "pipeline_not_ready"
	KindEmbeddingMismatch  Kind = "embedding_mismatch"
	KindConflict           Kind = "conflict"
	KindProviderAuth       Kind = "provider_auth"
	KindProviderRateLimit  Kind = "provider_rate_limit"
	KindProviderTimeout    Kind = "provider_timeout"
	KindAllProvidersFailed Kind = "all_providers_failed"
	KindVectorStore        Kind = "vector_store_failure"
	KindInternal           Kind = "internal"
)

// Error carries a kind, a caller-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindUnsupportedFile, KindEmptyFile, KindEmptyText,
		KindUnextractablePDF, KindPipelineNotReady:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindEmbeddingMismatch, KindConflict:
		return http.StatusConflict
	case KindProviderAuth, KindAllProvidersFailed:
		return http.StatusBadGateway
	case KindProviderRateLimit:
		return http.StatusTooManyRequests
	case KindProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
