package engine

import (
	"sync"
	"time"
)

// Clock issues asserted-time timestamps for revision commits.
//
// Now() is strictly increasing per process: when the wall clock has not
// advanced past the previous reading (coarse clock granularity, or two
// commits inside the same tick), the result is bumped one nanosecond past
// it. This preserves a total order on the asserted axis - two revisions
// committed in immediate succession never carry equal asserted timestamps.
//
// Thread-safety: Clock is safe for concurrent use.
type Clock struct {
	mu   sync.Mutex
	wall func() time.Time
	last time.Time
}

// NewClock creates a clock backed by the system wall clock.
func NewClock() *Clock {
	return &Clock{wall: time.Now}
}

// NewClockWithSource creates a clock reading from wall instead of the
// system clock. Used by tests and the conformance harness for
// deterministic asserted timestamps.
func NewClockWithSource(wall func() time.Time) *Clock {
	return &Clock{wall: wall}
}

// Now returns the next asserted timestamp, in UTC, strictly after every
// timestamp previously returned by this clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.wall().UTC()
	if !t.After(c.last) {
		t = c.last.Add(time.Nanosecond)
	}
	c.last = t
	return t
}

// NextRevisionNumber returns the number for the revision superseding a head
// numbered currentMax. Numbers are dense: first write gets 1.
func NextRevisionNumber(currentMax int) int {
	return currentMax + 1
}
