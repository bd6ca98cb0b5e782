package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := New(KindNotFound, "pipeline %s not found", "p1")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "pipeline p1 not found", err.Error())

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindConflict))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindInternal))
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindVectorStore, cause, "add failed")
	assert.Equal(t, "add failed: disk full", err.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:         http.StatusBadRequest,
		KindUnsupportedFile:    http.StatusBadRequest,
		KindEmptyFile:          http.StatusBadRequest,
		KindEmptyText:          http.StatusBadRequest,
		KindUnextractablePDF:   http.StatusBadRequest,
		KindPipelineNotReady:   http.StatusBadRequest,
		KindNotFound:           http.StatusNotFound,
		KindEmbeddingMismatch:  http.StatusConflict,
		KindConflict:           http.StatusConflict,
		KindProviderAuth:       http.StatusBadGateway,
		KindProviderRateLimit:  http.StatusTooManyRequests,
		KindProviderTimeout:    http.StatusGatewayTimeout,
		KindAllProvidersFailed: http.StatusBadGateway,
		KindVectorStore:        http.StatusInternalServerError,
		KindInternal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), string(kind))
	}
}
