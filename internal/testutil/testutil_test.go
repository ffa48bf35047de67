package testutil

import (
	"testing"
	"time"
)

func TestStepClock(t *testing.T) {
	start := time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC)
	src := StepClock(start, time.Second)

	if got := src(); !got.Equal(start) {
		t.Errorf("first read = %v, want %v", got, start)
	}
	if got := src(); !got.Equal(start.Add(time.Second)) {
		t.Errorf("second read = %v, want %v", got, start.Add(time.Second))
	}
}
