package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMalformedInput      = errors.New("malformed input")
	ErrDimensionMismatch   = errors.New("vocabulary dimension mismatch")
	ErrInvalidVocabulary   = errors.New("invalid vocabulary")
	ErrAbstractNotFound    = errors.New("abstract not found")
	ErrFeaturesNotFound    = errors.New("features not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrIdempotencyConflict = errors.New("idempotency key already used")
	ErrInternal            = errors.New("internal error")
	ErrTimeout             = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// IsContractViolation reports whether err was caused by bad input or a bad
// vocabulary rather than an infrastructure failure. Such errors are not
// worth retrying.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrInvalidVocabulary) ||
		errors.Is(err, ErrInvalidInput)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrAbstractNotFound), errors.Is(err, ErrFeaturesNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrIdempotencyConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrInvalidVocabulary):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
