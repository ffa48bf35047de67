// Package testutil provides shared fixtures for packages that test against
// a live store. Engine-internal tests keep their own helpers; importing
// this package from there would cycle.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/corvid-labs/tvd/internal/engine"
	"github.com/corvid-labs/tvd/internal/store"
)

// OpenStore opens a store on a per-test temp file and closes it on
// cleanup.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// NewEngine opens a test store and returns an engine registered as its
// write and read interceptor, the way production wiring does it.
func NewEngine(t *testing.T, opts ...engine.Option) (*engine.Engine, *store.Store) {
	t.Helper()
	st := OpenStore(t)
	eng := engine.New(st, opts...)
	st.RegisterWriteInterceptor(eng)
	st.RegisterReadInterceptor(eng)
	return eng, st
}

// StepClock returns a time source that starts at start and advances step
// per read. Pair with engine.NewClockWithSource for fully deterministic
// asserted intervals.
func StepClock(start time.Time, step time.Duration) func() time.Time {
	ticks := 0
	return func() time.Time {
		t := start.Add(time.Duration(ticks) * step)
		ticks++
		return t
	}
}
