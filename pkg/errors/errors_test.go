package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	err := Newf(ErrDimensionMismatch, http.StatusUnprocessableEntity, "token %q has %d dimensions", "x", 3)
	assert.Equal(t, `vocabulary dimension mismatch: token "x" has 3 dimensions`, err.Error())
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	wrapped := fmt.Errorf("vectorizing: %w", err)
	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode)
}

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrInternal, http.StatusTeapot, "custom"), http.StatusTeapot},
		{ErrFeaturesNotFound, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", ErrAbstractNotFound), http.StatusNotFound},
		{ErrIdempotencyConflict, http.StatusConflict},
		{ErrMalformedInput, http.StatusBadRequest},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrInvalidVocabulary, http.StatusUnprocessableEntity},
		{ErrTimeout, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), tt.err.Error())
	}
}

func TestIsContractViolation(t *testing.T) {
	for _, err := range []error{ErrMalformedInput, ErrDimensionMismatch, ErrInvalidVocabulary, ErrInvalidInput} {
		assert.True(t, IsContractViolation(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
	for _, err := range []error{ErrInternal, ErrTimeout, ErrFeaturesNotFound, errors.New("connection refused")} {
		assert.False(t, IsContractViolation(err), err.Error())
	}
}
