package delivery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock records requested waits without letting real time pass.
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return nil
}

// scriptRand replays a fixed draw sequence; once exhausted it repeats the
// final value.
type scriptRand struct {
	vals []float64
	i    int
}

func (r *scriptRand) Float64() float64 {
	if r.i >= len(r.vals) {
		return r.vals[len(r.vals)-1]
	}
	v := r.vals[r.i]
	r.i++
	return v
}

// stubRand always draws the same value.
type stubRand struct{ v float64 }

func (r stubRand) Float64() float64 { return r.v }

// sumWaits recreates TotalWait from the recorded attempt errors plus the wait
// spent before a successful final attempt.
func sumWaits(out Outcome, successWait time.Duration) time.Duration {
	total := successWait
	for _, e := range out.Errors {
		total += e.WaitedBefore
	}
	return total
}

// TestModesCoverEveryStrategyTag checks the mode list and its flag mapping.
func TestModesCoverEveryStrategyTag(t *testing.T) {
	want := []string{
		"HTTP_DIRECTO", "REINTENTOS_SIMPLES", "BACKOFF_EXPONENCIAL",
		"REINTENTOS_SOFISTICADOS", "REDIS_QUEUE", "RABBITMQ",
	}
	assert.Equal(t, want, Modes())

	for _, m := range Modes() {
		svc, ok := ServiceFor(m)
		require.True(t, ok, "mode %s has no gating flag", m)
		assert.NotEmpty(t, svc)
	}
	_, ok := ServiceFor("FTP_UPLOAD")
	assert.False(t, ok)
}

// TestClockSleepHonorsCancellation verifies a wait aborts as soon as the
// context is cancelled instead of running out the timer.
func TestClockSleepHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewClock().Sleep(ctx, 5*time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

// TestClockSleepZeroDuration returns immediately without arming a timer.
func TestClockSleepZeroDuration(t *testing.T) {
	require.NoError(t, NewClock().Sleep(context.Background(), 0))
}

// TestSeededRandIsReproducible checks two sources with the same seed draw the
// same sequence.
func TestSeededRandIsReproducible(t *testing.T) {
	a, b := NewRand(42), NewRand(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}
