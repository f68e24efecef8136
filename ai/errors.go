package ai

import (
	"errors"
	"fmt"

	"github.com/poiesic/ticketrank/core"
)

var (
	// ErrRateLimited indicates the provider rejected a call with HTTP 429.
	ErrRateLimited = errors.New("provider rate limited")

	// ErrMaxRetriesExceeded indicates a rate-limited call exhausted its retry budget.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrUpstream indicates a non-retryable provider failure.
	ErrUpstream = errors.New("provider error")

	// ErrEmptyResponse indicates the provider returned no data.
	ErrEmptyResponse = errors.New("provider returned empty response")

	// ErrInvalidConfig indicates an invalid provider configuration.
	// It matches core.ErrConfiguration.
	ErrInvalidConfig = fmt.Errorf("%w: ai", core.ErrConfiguration)
)

// RateLimitError reports a rate-limited provider call and how many attempts
// were made. Exhausted is set when the retry budget ran out.
type RateLimitError struct {
	Op        string
	Attempts  int
	Exhausted bool
	Err       error
}

func (e *RateLimitError) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("%s: %s after %d attempts: %v", e.Op, ErrMaxRetriesExceeded, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %s (attempt %d): %v", e.Op, ErrRateLimited, e.Attempts, e.Err)
}

func (e *RateLimitError) Is(target error) bool {
	if target == ErrRateLimited {
		return true
	}
	return e.Exhausted && target == ErrMaxRetriesExceeded
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// UpstreamError wraps a non-retryable provider failure.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrUpstream, e.Err)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Attempts returns the attempt count carried by a rate-limit error, or 0.
func Attempts(err error) int {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.Attempts
	}
	return 0
}
