package temporal

// Status classifies a document's place in a temporal history.
type Status int

const (
	// StatusNonTemporal marks a document the revision engine has never
	// touched. It is the implicit default: bags without a status key
	// decode to NonTemporal.
	StatusNonTemporal Status = iota

	// StatusCurrent is reserved for root documents that mirror the head
	// revision of a chain.
	StatusCurrent

	// StatusRevision marks any record that is part of a temporal history,
	// whether it is the current head or a closed historical revision.
	StatusRevision
)

// String returns the persisted name of the status.
func (s Status) String() string {
	switch s {
	case StatusCurrent:
		return "Current"
	case StatusRevision:
		return "Revision"
	default:
		return "NonTemporal"
	}
}

// ParseStatus converts a persisted status string back to a Status.
//
// The conversion is lossy-safe: unknown or malformed values decode to
// StatusNonTemporal and never produce an error. A corrupted status key
// therefore degrades the document to untracked rather than failing reads.
func ParseStatus(s string) Status {
	switch s {
	case "Current":
		return StatusCurrent
	case "Revision":
		return StatusRevision
	default:
		return StatusNonTemporal
	}
}
