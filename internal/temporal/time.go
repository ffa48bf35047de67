package temporal

import (
	"math"
	"time"
)

// Infinity is the sentinel upper bound for open-ended intervals. A revision
// whose effectiveUntil or assertedUntil equals Infinity is still open on
// that axis. The value matches the maximum representable timestamp of the
// original chains at 100ns precision, so bags written by either side
// compare equal.
var Infinity = time.Date(9999, time.December, 31, 23, 59, 59, 999999900, time.UTC)

// IsInfinity reports whether t is the open-interval sentinel.
func IsInfinity(t time.Time) bool {
	return !t.Before(Infinity)
}

// TimeFormat is the wire format for timestamps in metadata bags.
const TimeFormat = time.RFC3339Nano

// ToNanos converts t to int64 unix nanoseconds for the store's indexed
// columns. Infinity maps to math.MaxInt64, since year 9999 overflows the
// unix-nano range; every representable real timestamp sorts below it.
func ToNanos(t time.Time) int64 {
	if IsInfinity(t) {
		return math.MaxInt64
	}
	return t.UnixNano()
}

// FromNanos is the inverse of ToNanos.
func FromNanos(n int64) time.Time {
	if n == math.MaxInt64 {
		return Infinity
	}
	return time.Unix(0, n).UTC()
}
