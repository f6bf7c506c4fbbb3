package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitchside/internal/metrics"
)

// ErrLimitExceeded is returned by non-blocking acquisition when the window
// budget is spent.
var ErrLimitExceeded = errors.New("rate limit exceeded for current window")

// Clock abstracts time for the governor so window behavior is testable
// without wall-clock sleeps.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Governor enforces a rolling fixed-window request ceiling shared across all
// workers. Acquire is the single deliberate blocking point of the ingestion
// path.
type Governor struct {
	store  CounterStore
	limit  int64
	window time.Duration
	clock  Clock
	logger *logrus.Logger
}

// NewGovernor creates a governor with the given ceiling per window
func NewGovernor(store CounterStore, limit int, window time.Duration, logger *logrus.Logger) *Governor {
	return &Governor{
		store:  store,
		limit:  int64(limit),
		window: window,
		clock:  realClock{},
		logger: logger,
	}
}

// WithClock replaces the governor's clock, for tests
func (g *Governor) WithClock(clock Clock) *Governor {
	g.clock = clock
	return g
}

// windowKey buckets time into fixed windows. Every worker derives the same
// key for the same instant, which is what makes the budget shared.
func (g *Governor) windowKey(now time.Time) string {
	return fmt.Sprintf("feed:rate:%d", now.UnixNano()/int64(g.window))
}

func (g *Governor) resetIn(now time.Time) time.Duration {
	elapsed := time.Duration(now.UnixNano() % int64(g.window))
	return g.window - elapsed
}

// Acquire blocks until a slot in the current window is granted or the context
// is cancelled. If the counter store is unreachable the call is allowed
// through with a warning: exceeding the provider limit risks a 429, which is
// recoverable, while stalling the whole pipeline is not.
func (g *Governor) Acquire(ctx context.Context) error {
	for {
		now := g.clock.Now()
		count, err := g.store.Incr(ctx, g.windowKey(now), g.window)
		if err != nil {
			g.logger.WithError(err).Warn("Rate counter store unavailable, allowing request through")
			return nil
		}

		if count <= g.limit {
			return nil
		}

		wait := g.resetIn(now)
		metrics.RateBudgetWaitsTotal.Inc()
		g.logger.WithFields(logrus.Fields{
			"used":     count,
			"limit":    g.limit,
			"reset_in": wait.String(),
		}).Debug("Rate ceiling reached, blocking until window reset")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-g.clock.After(wait):
		}
	}
}

// TryAcquire attempts a non-blocking acquisition, returning ErrLimitExceeded
// when the window budget is spent.
func (g *Governor) TryAcquire(ctx context.Context) error {
	now := g.clock.Now()
	count, err := g.store.Incr(ctx, g.windowKey(now), g.window)
	if err != nil {
		g.logger.WithError(err).Warn("Rate counter store unavailable, allowing request through")
		return nil
	}

	if count > g.limit {
		return ErrLimitExceeded
	}

	return nil
}

// Remaining reports current window usage for operator visibility
func (g *Governor) Remaining(ctx context.Context) (used, limit int64, resetIn time.Duration, err error) {
	now := g.clock.Now()
	used, err = g.store.Get(ctx, g.windowKey(now))
	if err != nil {
		return 0, g.limit, 0, fmt.Errorf("failed to read rate counter: %w", err)
	}
	return used, g.limit, g.resetIn(now), nil
}
