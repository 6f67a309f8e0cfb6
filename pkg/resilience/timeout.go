package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/errors"
)

// WithTimeout runs fn under a context that expires after timeout. An overrun
// is reported as an AppError wrapping ErrTimeout (503), whether fn noticed
// the deadline itself or was still running. Cancellation of ctx is returned
// as ctx's error. A non-positive timeout calls fn directly.
func WithTimeout(ctx context.Context, timeout time.Duration, op string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	bounded, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- fn(bounded) }()

	var err error
	select {
	case err = <-errc:
		if err == nil || !errors.Is(bounded.Err(), context.DeadlineExceeded) {
			return err
		}
	case <-bounded.Done():
	}
	if parentErr := ctx.Err(); parentErr != nil {
		return fmt.Errorf("%s: %w", op, parentErr)
	}
	return apperrors.Newf(apperrors.ErrTimeout, http.StatusServiceUnavailable, "%s exceeded %v", op, timeout)
}
