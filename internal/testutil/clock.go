package testutil

import "sync"

// DeterministicClock is a manually advanced wall clock in microseconds.
//
// Pass Now as the wall source of engine.NewClockWithSource to make command
// timestamps reproducible across runs.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start uint64
	now   uint64
}

// NewDeterministicClock creates a clock reading start.
func NewDeterministicClock(start uint64) *DeterministicClock {
	return &DeterministicClock{start: start, now: start}
}

// Now returns the current reading without advancing.
func (c *DeterministicClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new reading.
func (c *DeterministicClock) Advance(d uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}

// Reset rewinds the clock to its start reading.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
