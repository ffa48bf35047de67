package temporal

// Persisted metadata keys. These exact strings are written into revision
// metadata bags; changing any of them breaks compatibility with existing
// revision chains.
const (
	KeyRevision       = "Raven-Document-Temporal-Revision"
	KeyStatus         = "Raven-Document-Temporal-Status"
	KeyEffectiveStart = "Raven-Document-Temporal-Effective-Start"
	KeyEffectiveUntil = "Raven-Document-Temporal-Effective-Until"
	KeyAssertedStart  = "Raven-Document-Temporal-Asserted-Start"
	KeyAssertedUntil  = "Raven-Document-Temporal-Asserted-Until"
	KeyDeleted        = "Raven-Document-Temporal-Deleted"
	KeyPending        = "Raven-Document-Temporal-Pending"

	// KeyEffective is the per-request requested effective date. It is a
	// transient signal on an operation, never persisted with a revision.
	KeyEffective = "Raven-Temporal-Effective"
)

// RevisionKeySeparator joins a document key and a revision number to form
// the addressable key of a historical revision, e.g.
// "employees/1/temporalrevisions/3".
const RevisionKeySeparator = "/temporalrevisions/"

// IsTemporalKey reports whether key is one of the bag keys this package
// owns, including the transient KeyEffective. Everything else in a bag
// belongs to the caller and is carried through writes untouched.
func IsTemporalKey(key string) bool {
	switch key {
	case KeyRevision, KeyStatus,
		KeyEffectiveStart, KeyEffectiveUntil,
		KeyAssertedStart, KeyAssertedUntil,
		KeyDeleted, KeyPending, KeyEffective:
		return true
	}
	return false
}
