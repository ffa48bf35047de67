package engine

import (
	"testing"
	"time"
)

func TestClock_StrictlyIncreasing(t *testing.T) {
	c := NewClock()

	prev := c.Now()
	for i := 0; i < 1000; i++ {
		next := c.Now()
		if !next.After(prev) {
			t.Fatalf("Now() = %v, not after previous %v", next, prev)
		}
		prev = next
	}
}

func TestClock_BumpsFrozenSource(t *testing.T) {
	frozen := time.Date(2012, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewClockWithSource(func() time.Time { return frozen })

	a := c.Now()
	b := c.Now()
	if !a.Equal(frozen) {
		t.Errorf("first Now() = %v, want %v", a, frozen)
	}
	if !b.After(a) {
		t.Errorf("second Now() = %v, not after %v", b, a)
	}
	if b.Sub(a) != time.Nanosecond {
		t.Errorf("bump = %v, want 1ns", b.Sub(a))
	}
}

func TestNextRevisionNumber(t *testing.T) {
	if got := NextRevisionNumber(0); got != 1 {
		t.Errorf("NextRevisionNumber(0) = %d, want 1", got)
	}
	if got := NextRevisionNumber(7); got != 8 {
		t.Errorf("NextRevisionNumber(7) = %d, want 8", got)
	}
}
