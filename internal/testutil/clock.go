package testutil

import (
	"sync"
	"time"
)

// Clock provides a settable wall clock for tests.
//
// Production code takes a `func() time.Time`; pass clock.Now to freeze
// timestamps and Advance to move time forward deterministically.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

// NewClock creates a clock frozen at the given instant.
func NewClock(at time.Time) *Clock {
	return &Clock{t: at}
}

// Now returns the current frozen instant. Method value clock.Now
// satisfies the `func() time.Time` injection points.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	return c.t
}

// Set pins the clock to an exact instant.
func (c *Clock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = at
}
