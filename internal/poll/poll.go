// Package poll provides bounded poll-until-predicate waiting on an
// injectable clock, so DOM-settling waits can be simulated in tests.
package poll

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time for polling loops.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// System is the wall-clock implementation.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitFor polls pred every interval until it returns true or timeout
// elapses. The predicate is checked once before any sleeping. Returns
// whether the predicate was satisfied.
func WaitFor(ctx context.Context, c Clock, pred func() bool, timeout, interval time.Duration) bool {
	start := c.Now()
	for {
		if pred() {
			return true
		}
		if c.Now().Sub(start) >= timeout {
			return false
		}
		if err := c.Sleep(ctx, interval); err != nil {
			return false
		}
	}
}

// Simulated is a Clock whose Sleep advances time instantly, making polling
// loops deterministic and immediate under test.
type Simulated struct {
	mu  sync.Mutex
	now time.Time
}

// NewSimulated returns a Simulated clock starting at start.
func NewSimulated(start time.Time) *Simulated {
	return &Simulated{now: start}
}

func (s *Simulated) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *Simulated) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
	return nil
}

// Advance moves the simulated clock forward manually.
func (s *Simulated) Advance(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}
