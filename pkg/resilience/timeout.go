package resilience

import (
	"context"
	"fmt"
	"time"
)

// WithTimeout bounds how long the caller waits for fn. fn runs in its
// own goroutine under a context that expires after timeout; when the
// deadline passes the caller gets context.DeadlineExceeded while fn
// finishes in the background. That makes it usable around work that
// cannot observe cancellation itself, where bounding the wait is the
// only available guarantee. A non-positive timeout runs fn inline.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(timeoutCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-timeoutCtx.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("%s: parent context cancelled: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s: %w (limit: %v)", name, context.DeadlineExceeded, timeout)
	}
}
