// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Retrier retries rate-limited provider calls on a fixed progressive schedule.
// Other failures are returned immediately as *UpstreamError.
type Retrier struct {
	maxRetries int
	schedule   []time.Duration
	timeout    time.Duration
	onRetry    func(RetryEvent)
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// NewRetrier creates a Retrier from cfg's retry settings.
func NewRetrier(cfg *Config, logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		maxRetries: cfg.MaxRetries,
		schedule:   cfg.RetrySchedule,
		timeout:    cfg.RequestTimeout,
		onRetry:    cfg.OnRetry,
		sleep:      sleepContext,
		logger:     logger,
	}
}

// Do runs call until it succeeds, fails with a non-rate-limit error, or the
// retry budget is spent. call must wrap HTTP 429 responses with ErrRateLimited.
func (r *Retrier) Do(ctx context.Context, op string, call func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.once(ctx, call)
		if err == nil {
			if attempt > 0 {
				r.logger.Debug("provider call succeeded after retry", "op", op, "attempt", attempt+1)
			}
			return nil
		}

		if !errors.Is(err, ErrRateLimited) {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return ctxErr
			}
			return &UpstreamError{Op: op, Err: err}
		}

		if attempt >= r.maxRetries {
			r.logger.Error("provider rate limit retries exhausted", "op", op, "attempts", attempt+1)
			return &RateLimitError{Op: op, Attempts: attempt + 1, Exhausted: true, Err: err}
		}

		wait := r.waitFor(attempt)
		r.logger.Warn("provider rate limited, waiting",
			"op", op,
			"attempt", attempt+1,
			"maxRetries", r.maxRetries,
			"wait", wait)
		if r.onRetry != nil {
			r.onRetry(RetryEvent{Op: op, Attempt: attempt + 1, MaxRetries: r.maxRetries, Wait: wait})
		}

		if err := r.sleep(ctx, wait); err != nil {
			return &RateLimitError{Op: op, Attempts: attempt + 1, Err: err}
		}
	}
}

func (r *Retrier) once(ctx context.Context, call func(ctx context.Context) error) error {
	if r.timeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return call(callCtx)
}

func (r *Retrier) waitFor(attempt int) time.Duration {
	if len(r.schedule) == 0 {
		return 0
	}
	if attempt < len(r.schedule) {
		return r.schedule[attempt]
	}
	return r.schedule[len(r.schedule)-1]
}

// sleepContext waits for d, returning early with ctx's error if it is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
