// Package enrich attaches best-effort images, news, maps and websites to
// normalized results.
package enrich

import (
	"context"
	"fmt"
	"time"
)

// BestEffort runs fn under timeout and reports its result. A panic in fn
// becomes an error, and fn is abandoned once the timeout expires even if it
// ignores its context. Callers treat any error as an absent value.
func BestEffort[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return zero, o.err
		}
		return o.value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
