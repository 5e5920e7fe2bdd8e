package testutil

import (
	"sync"
	"time"
)

// Epoch is the default start time of a FakeClock: 2024-03-15 09:30:00 UTC.
var Epoch = time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)

// FakeClock is a controllable wall clock for tests.
//
// Now returns the current fake time and then advances it by the configured
// step (zero by default), so code that reads the clock repeatedly can be
// given distinct, predictable timestamps.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FakeClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFakeClock creates a clock frozen at start. A zero start means Epoch.
func NewFakeClock(start time.Time) *FakeClock {
	if start.IsZero() {
		start = Epoch
	}
	return &FakeClock{now: start}
}

// NewSteppingClock creates a clock that advances by step after every Now.
func NewSteppingClock(start time.Time, step time.Duration) *FakeClock {
	c := NewFakeClock(start)
	c.step = step
	return c
}

// Now returns the fake time, then advances it by the step.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Peek returns the fake time without advancing it.
func (c *FakeClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
