// Package retry runs API operations with bounded retries, classifying
// failures to pick the backoff: rate limits back off exponentially, other
// failures wait a constant delay.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rcliao/wayfarer/internal/llm"
)

// Kind classifies a failed attempt.
type Kind int

// Failure kinds, most specific first.
const (
	KindGeneric Kind = iota
	KindRateLimit
	KindAuth
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindAuth:
		return "auth"
	case KindProvider:
		return "provider"
	default:
		return "generic"
	}
}

// Error is the terminal error returned after all attempts fail.
type Error struct {
	Kind     Kind
	Attempts int
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed after %d attempts (%s): %v", e.Op, e.Attempts, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps an error onto a failure kind. Provider errors are matched by
// status code first; message text is sniffed as a fallback for wrapped or
// mislabeled errors.
func Classify(err error) Kind {
	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return KindRateLimit
		case http.StatusUnauthorized, http.StatusForbidden:
			return KindAuth
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"):
		return KindRateLimit
	case strings.Contains(msg, "api key"), strings.Contains(msg, "authentication"):
		return KindAuth
	}

	if apiErr != nil {
		return KindProvider
	}
	return KindGeneric
}

// Executor retries operations with classified backoff. It knows nothing
// about what the operation does; callers capture results in the closure.
type Executor struct {
	maxAttempts int
	baseDelay   time.Duration
	limiter     *rate.Limiter
	log         *slog.Logger

	// sleep is swapped out in tests.
	sleep func(context.Context, time.Duration) error
}

// New creates an executor. perMinute > 0 adds a client-side pacing gate in
// front of every attempt.
func New(maxAttempts int, baseDelay time.Duration, perMinute int, logger *slog.Logger) *Executor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var limiter *rate.Limiter
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
	}
	return &Executor{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		limiter:     limiter,
		log:         logger,
		sleep:       sleepCtx,
	}
}

// Do runs fn up to the attempt limit. It returns nil on the first success,
// ctx.Err() if the context ends first, and a *Error once attempts are
// exhausted. No delay is taken after the final attempt.
func (e *Executor) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				e.log.Info("operation recovered", "op", op, "attempt", attempt+1)
			}
			return nil
		}
		lastErr = err

		kind := Classify(err)
		if attempt == e.maxAttempts-1 {
			break
		}
		delay := e.delayFor(kind, attempt)
		e.log.Warn("operation attempt failed",
			"op", op,
			"attempt", attempt+1,
			"max_attempts", e.maxAttempts,
			"kind", kind.String(),
			"retry_in", delay,
			"error", err)
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}

	kind := Classify(lastErr)
	e.log.Error("operation failed, retries exhausted",
		"op", op, "attempts", e.maxAttempts, "kind", kind.String(), "error", lastErr)
	return &Error{Kind: kind, Attempts: e.maxAttempts, Op: op, Err: lastErr}
}

// delayFor doubles the base delay per completed attempt for rate limits and
// holds it constant for everything else.
func (e *Executor) delayFor(kind Kind, attempt int) time.Duration {
	if kind == KindRateLimit {
		return e.baseDelay << attempt
	}
	return e.baseDelay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
