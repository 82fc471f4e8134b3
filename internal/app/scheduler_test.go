package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/speaker_booking/internal/cache"
	"github.com/Freeeeeet/speaker_booking/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Фоновые задачи сервера
var (
	_ Sweeper = (*ratelimit.Limiter)(nil)
	_ Sweeper = (*cache.MemoryCache)(nil)
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) Sweep() int {
	c.calls.Add(1)
	return 1
}

func TestScheduler_RunsTasksUntilStopped(t *testing.T) {
	counter := &countingSweeper{}
	calls := &counter.calls

	s := NewScheduler(5*time.Millisecond, zap.NewNop())
	s.Register("counter", counter)

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	s.Stop()
	stopped := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewScheduler(time.Hour, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after context cancel")
	}
}

func TestScheduler_SweepsRegisteredStores(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Options{MaxAttempts: 5, Window: time.Millisecond, Lockout: time.Millisecond})
	limiter.RecordAttempt("10.0.0.1", false)
	require.Equal(t, 1, limiter.Len())

	dayCache := cache.NewMemoryCache(time.Millisecond)
	require.NoError(t, dayCache.Set(context.Background(), cache.MonthKey(2025, time.June), []string{"2025-06-10"}))

	s := NewScheduler(5*time.Millisecond, zap.NewNop())
	s.Register("admin_rate_limiter", limiter)
	s.Register("availability_cache", dayCache)
	s.Start(context.Background())
	defer s.Stop()

	assert.Eventually(t, func() bool { return limiter.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return dayCache.Sweep() == 0 }, time.Second, 5*time.Millisecond)
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger("production"))
	assert.NotNil(t, NewLogger("development"))
}
