package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests control window boundaries without wall-clock sleeps
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.waiters = append(c.waiters, fakeWaiter{deadline: c.now.Add(d), ch: ch})
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.now) {
			w.ch <- c.now
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}

// failingStore simulates an unreachable shared counter
type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("connection refused")
}

func (failingStore) Get(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestAcquireWithinLimit(t *testing.T) {
	clock := newFakeClock()
	g := NewGovernor(NewMemoryStore(), 5, time.Minute, testLogger()).WithClock(clock)

	for i := 0; i < 5; i++ {
		require.NoError(t, g.Acquire(context.Background()))
	}

	used, limit, _, err := g.Remaining(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), used)
	assert.Equal(t, int64(5), limit)
}

func TestAcquireBlocksUntilWindowReset(t *testing.T) {
	clock := newFakeClock()
	g := NewGovernor(NewMemoryStore(), 3, time.Minute, testLogger()).WithClock(clock)

	for i := 0; i < 3; i++ {
		require.NoError(t, g.Acquire(context.Background()))
	}

	acquired := make(chan error, 1)
	go func() {
		acquired <- g.Acquire(context.Background())
	}()

	select {
	case err := <-acquired:
		t.Fatalf("acquire should have blocked, returned %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(time.Minute)

	select {
	case err := <-acquired:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("acquire did not unblock after window reset")
	}
}

func TestTryAcquireFailsFastAtCeiling(t *testing.T) {
	clock := newFakeClock()
	g := NewGovernor(NewMemoryStore(), 2, time.Minute, testLogger()).WithClock(clock)

	require.NoError(t, g.TryAcquire(context.Background()))
	require.NoError(t, g.TryAcquire(context.Background()))

	err := g.TryAcquire(context.Background())
	assert.ErrorIs(t, err, ErrLimitExceeded)
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	clock := newFakeClock()
	g := NewGovernor(NewMemoryStore(), 1, time.Minute, testLogger()).WithClock(clock)

	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	acquired := make(chan error, 1)
	go func() {
		acquired <- g.Acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-acquired:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("acquire did not observe cancellation")
	}
}

func TestDegradedStoreAllowsRequests(t *testing.T) {
	clock := newFakeClock()
	g := NewGovernor(failingStore{}, 1, time.Minute, testLogger()).WithClock(clock)

	// Availability over strict correctness: a dead counter store must not
	// stall the pipeline.
	for i := 0; i < 10; i++ {
		assert.NoError(t, g.Acquire(context.Background()))
	}
}

func TestWindowRollsOver(t *testing.T) {
	clock := newFakeClock()
	g := NewGovernor(NewMemoryStore(), 2, time.Minute, testLogger()).WithClock(clock)

	require.NoError(t, g.TryAcquire(context.Background()))
	require.NoError(t, g.TryAcquire(context.Background()))
	require.ErrorIs(t, g.TryAcquire(context.Background()), ErrLimitExceeded)

	clock.Advance(time.Minute)

	assert.NoError(t, g.TryAcquire(context.Background()))
}
