package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRetrier records waits instead of sleeping.
func newTestRetrier(cfg *Config) (*Retrier, *[]time.Duration) {
	r := NewRetrier(cfg, nil)
	var waits []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return r, &waits
}

func rateLimited() error {
	return fmt.Errorf("%w: status 429", ErrRateLimited)
}

func TestRetrier_Success(t *testing.T) {
	r, waits := newTestRetrier(DefaultConfig())
	attempts := 0

	err := r.Do(context.Background(), "embed", func(ctx context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts, "should succeed on first try")
	assert.Empty(t, *waits)
}

func TestRetrier_RecoversFromRateLimit(t *testing.T) {
	r, waits := newTestRetrier(DefaultConfig())
	attempts := 0

	err := r.Do(context.Background(), "complete", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return rateLimited()
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, *waits)
}

func TestRetrier_ExhaustedBudget(t *testing.T) {
	r, waits := newTestRetrier(DefaultConfig())
	attempts := 0

	err := r.Do(context.Background(), "complete", func(ctx context.Context) error {
		attempts++
		return rateLimited()
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts, "MaxRetries 2 means three attempts")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, 3, Attempts(err))
	assert.Len(t, *waits, 2)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.True(t, rl.Exhausted)
	assert.Equal(t, "complete", rl.Op)
}

func TestRetrier_ScheduleReusesLastWait(t *testing.T) {
	cfg := NewConfig(WithMaxRetries(4), WithRetrySchedule(time.Second, 2*time.Second))
	r, waits := newTestRetrier(cfg)

	_ = r.Do(context.Background(), "embed", func(ctx context.Context) error {
		return rateLimited()
	})
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second}, *waits)
}

func TestRetrier_NonRateLimitNotRetried(t *testing.T) {
	r, waits := newTestRetrier(DefaultConfig())
	attempts := 0
	cause := errors.New("bad request")

	err := r.Do(context.Background(), "embed", func(ctx context.Context) error {
		attempts++
		return cause
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, *waits)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 0, Attempts(err))
}

func TestRetrier_ZeroRetries(t *testing.T) {
	r, _ := newTestRetrier(NewConfig(WithMaxRetries(0)))
	attempts := 0

	err := r.Do(context.Background(), "embed", func(ctx context.Context) error {
		attempts++
		return rateLimited()
	})
	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, 1, Attempts(err))
}

func TestRetrier_NotifiesBeforeWaiting(t *testing.T) {
	var events []RetryEvent
	cfg := NewConfig(WithRetryNotifier(func(e RetryEvent) { events = append(events, e) }))
	r, _ := newTestRetrier(cfg)

	_ = r.Do(context.Background(), "complete", func(ctx context.Context) error {
		return rateLimited()
	})
	require.Len(t, events, 2)
	assert.Equal(t, RetryEvent{Op: "complete", Attempt: 1, MaxRetries: 2, Wait: 10 * time.Second}, events[0])
	assert.Equal(t, 2, events[1].Attempt)
}

func TestRetrier_ContextCanceledDuringWait(t *testing.T) {
	cfg := NewConfig(WithRetrySchedule(time.Hour))
	r := NewRetrier(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, "complete", func(ctx context.Context) error {
			attempts++
			return rateLimited()
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, Attempts(err))
	case <-time.After(2 * time.Second):
		t.Fatal("retrier did not stop after cancellation")
	}
	assert.Equal(t, 1, attempts)
}

func TestRetrier_AppliesRequestTimeout(t *testing.T) {
	cfg := NewConfig(WithRequestTimeout(10 * time.Millisecond))
	r, _ := newTestRetrier(cfg)

	var deadlineSet bool
	_ = r.Do(context.Background(), "embed", func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		return nil
	})
	assert.True(t, deadlineSet)
}
