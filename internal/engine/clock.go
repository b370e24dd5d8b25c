package engine

import (
	"sync/atomic"
	"time"
)

// Clock stamps delivered commands with strictly increasing microsecond
// timestamps.
//
// Now returns max(wall clock, last+1), so two commands never share a
// timestamp even when the wall clock stalls or steps backwards.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// However, the Engine's single-writer design means only one goroutine
// typically calls Now().
type Clock struct {
	last atomic.Uint64
	wall func() uint64
}

// NewClock creates a clock reading the system wall clock.
func NewClock() *Clock {
	return NewClockWithSource(WallMicros, 0)
}

// NewClockAt creates a clock that will never return a value <= last.
// Used on startup to resume after the latest delivery in the log.
func NewClockAt(last uint64) *Clock {
	return NewClockWithSource(WallMicros, last)
}

// NewClockWithSource creates a clock over an arbitrary wall source.
// Tests pass a frozen or scripted source.
func NewClockWithSource(wall func() uint64, last uint64) *Clock {
	c := &Clock{wall: wall}
	c.last.Store(last)
	return c
}

// WallMicros returns the system time in microseconds since the Unix epoch.
func WallMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

// Now returns the next timestamp.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Now() uint64 {
	for {
		last := c.last.Load()
		next := c.wall()
		if next <= last {
			next = last + 1
		}
		if c.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

// Wall returns the current wall reading without advancing the clock.
// Used for submission times, which carry no ordering guarantee.
func (c *Clock) Wall() uint64 {
	return c.wall()
}

// Current returns the last timestamp handed out.
func (c *Clock) Current() uint64 {
	return c.last.Load()
}

// Observe raises the clock to at least ts.
func (c *Clock) Observe(ts uint64) {
	for {
		last := c.last.Load()
		if ts <= last || c.last.CompareAndSwap(last, ts) {
			return
		}
	}
}
