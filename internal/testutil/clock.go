package testutil

import (
	"sync"
	"time"
)

// ManualClock is a wall clock for tests that only moves when told to.
//
// It satisfies relevance.Clock. Time is kept in milliseconds since the
// epoch, the journal's timestamp unit.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu sync.Mutex
	ms int64
}

// NewManualClock creates a clock reading ms milliseconds since the epoch.
func NewManualClock(ms int64) *ManualClock {
	return &ManualClock{ms: ms}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.UnixMilli(c.ms)
}

// Millis returns the current time as milliseconds since the epoch.
func (c *ManualClock) Millis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ms
}

// Set moves the clock to ms. Moving backwards is allowed.
func (c *ManualClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms = ms
}

// Advance moves the clock forward by d and returns the new reading in ms.
func (c *ManualClock) Advance(d time.Duration) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ms += d.Milliseconds()
	return c.ms
}
