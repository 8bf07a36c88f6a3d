package delivery

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Clock abstracts the strategy waits so tests can run full schedules without
// real time passing.
type Clock interface {
	// Sleep waits for d or until ctx is cancelled, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
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

// Rand is the source of outcome draws. Tests inject a scripted sequence.
type Rand interface {
	Float64() float64
}

// SystemRand returns the process-wide math/rand source, safe for concurrent
// strategy runs.
func SystemRand() Rand { return systemRand{} }

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }

// NewRand returns a seeded source for reproducible demo runs.
func NewRand(seed int64) Rand {
	return &seededRand{r: rand.New(rand.NewSource(seed))}
}

type seededRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *seededRand) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
