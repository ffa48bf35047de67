package temporal

import (
	"strconv"
	"time"
)

// Metadata is a typed view over a document's metadata bag. It does not copy
// the bag: every setter mutates the underlying map, and nothing else.
//
// Getters return the documented default when a key is absent or malformed:
// revision number 0, status NonTemporal, deleted/pending false, and absent
// timestamps report ok=false. Setters apply default-omission (see package
// doc).
type Metadata struct {
	bag map[string]string
}

// Wrap creates an accessor over bag. The bag must be non-nil.
func Wrap(bag map[string]string) Metadata {
	return Metadata{bag: bag}
}

// RevisionNumber returns the revision number, or 0 when absent.
func (m Metadata) RevisionNumber() int {
	n, err := strconv.Atoi(m.bag[KeyRevision])
	if err != nil {
		return 0
	}
	return n
}

// SetRevisionNumber writes n, removing the key when n <= 0.
func (m Metadata) SetRevisionNumber(n int) {
	if n > 0 {
		m.bag[KeyRevision] = strconv.Itoa(n)
	} else {
		delete(m.bag, KeyRevision)
	}
}

// Status returns the temporal status, falling back to StatusNonTemporal for
// absent or unparseable values.
func (m Metadata) Status() Status {
	return ParseStatus(m.bag[KeyStatus])
}

// SetStatus writes s, removing the key for StatusNonTemporal.
func (m Metadata) SetStatus(s Status) {
	if s != StatusNonTemporal {
		m.bag[KeyStatus] = s.String()
	} else {
		delete(m.bag, KeyStatus)
	}
}

// Deleted reports whether this revision is a tombstone.
func (m Metadata) Deleted() bool { return m.getBool(KeyDeleted) }

// SetDeleted writes the tombstone flag, removing the key when false.
func (m Metadata) SetDeleted(v bool) { m.setBool(KeyDeleted, v) }

// Pending reports whether this revision's effective date was in the future
// when it was asserted.
func (m Metadata) Pending() bool { return m.getBool(KeyPending) }

// SetPending writes the pending flag, removing the key when false.
func (m Metadata) SetPending(v bool) { m.setBool(KeyPending, v) }

// EffectiveStart returns the lower valid-time bound.
func (m Metadata) EffectiveStart() (time.Time, bool) { return m.getTime(KeyEffectiveStart) }

// SetEffectiveStart writes the lower valid-time bound. The zero time
// removes the key.
func (m Metadata) SetEffectiveStart(t time.Time) { m.setTime(KeyEffectiveStart, t) }

// EffectiveUntil returns the upper valid-time bound. Callers treat an
// absent bound as Infinity.
func (m Metadata) EffectiveUntil() (time.Time, bool) { return m.getTime(KeyEffectiveUntil) }

// SetEffectiveUntil writes the upper valid-time bound. The zero time
// removes the key.
func (m Metadata) SetEffectiveUntil(t time.Time) { m.setTime(KeyEffectiveUntil, t) }

// AssertedStart returns the lower transaction-time bound.
func (m Metadata) AssertedStart() (time.Time, bool) { return m.getTime(KeyAssertedStart) }

// SetAssertedStart writes the lower transaction-time bound. The zero time
// removes the key.
func (m Metadata) SetAssertedStart(t time.Time) { m.setTime(KeyAssertedStart, t) }

// AssertedUntil returns the upper transaction-time bound. Callers treat an
// absent bound as Infinity.
func (m Metadata) AssertedUntil() (time.Time, bool) { return m.getTime(KeyAssertedUntil) }

// SetAssertedUntil writes the upper transaction-time bound. The zero time
// removes the key.
func (m Metadata) SetAssertedUntil(t time.Time) { m.setTime(KeyAssertedUntil, t) }

// Effective returns the transient requested effective date, if one was
// attached to the operation's bag.
func (m Metadata) Effective() (time.Time, bool) { return m.getTime(KeyEffective) }

// SetEffective writes the transient requested effective date. The zero time
// removes the key.
func (m Metadata) SetEffective(t time.Time) { m.setTime(KeyEffective, t) }

func (m Metadata) getBool(key string) bool {
	v, err := strconv.ParseBool(m.bag[key])
	if err != nil {
		return false
	}
	return v
}

func (m Metadata) setBool(key string, v bool) {
	if v {
		m.bag[key] = "true"
	} else {
		delete(m.bag, key)
	}
}

func (m Metadata) getTime(key string) (time.Time, bool) {
	raw, ok := m.bag[key]
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(TimeFormat, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (m Metadata) setTime(key string, t time.Time) {
	if !t.IsZero() {
		m.bag[key] = t.UTC().Format(TimeFormat)
	} else {
		delete(m.bag, key)
	}
}
