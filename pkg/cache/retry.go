package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNetwork is returned when a remote backend cannot be reached.
	ErrNetwork = errors.New("cache backend unreachable")

	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache closed")
)

// RetryableError marks a transient failure worth another attempt.
type RetryableError struct{ Err error }

// Retryable marks err as transient. It returns nil for a nil err.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err, or anything it wraps, is a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// Backoff retries an operation while it fails with a Retryable error,
// doubling the wait after each attempt.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// connectBackoff covers a redis server that is still starting.
var connectBackoff = Backoff{Attempts: 3, Delay: 200 * time.Millisecond}

// Do calls fn until it succeeds, returns a permanent error, the attempts
// run out or ctx is done. The last error is returned.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var err error
	for i := range attempts {
		if err = fn(); err == nil || !IsRetryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return err
}
