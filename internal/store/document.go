package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/corvid-labs/tvd/internal/temporal"
)

// Document is one stored record: an opaque JSON payload plus its metadata
// bag and concurrency token. Root documents and addressable revisions share
// this shape, so callers cannot tell from the result type whether a read
// was served by the head or by a historical revision.
type Document struct {
	Key      string
	Payload  json.RawMessage
	Metadata map[string]string
	ETag     string
}

// Clone returns a deep copy. Interceptors that rewrite results must not
// alias the caller's maps.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	meta := make(map[string]string, len(d.Metadata))
	for k, v := range d.Metadata {
		meta[k] = v
	}
	payload := make(json.RawMessage, len(d.Payload))
	copy(payload, d.Payload)
	return &Document{Key: d.Key, Payload: payload, Metadata: meta, ETag: d.ETag}
}

// Revision is one row of a document's revision chain, with the temporal
// bounds denormalized out of the metadata bag for indexed access. Bounds
// equal to temporal.Infinity mark open intervals.
type Revision struct {
	DocID          string
	Number         int
	Status         temporal.Status
	EffectiveStart time.Time
	EffectiveUntil time.Time
	AssertedStart  time.Time
	AssertedUntil  time.Time
	Deleted        bool
	Pending        bool
	Payload        json.RawMessage
	Metadata       map[string]string
	ETag           string
}

// Key returns the addressable key of this revision,
// e.g. "employees/1/temporalrevisions/3".
func (r *Revision) Key() string {
	return RevisionKey(r.DocID, r.Number)
}

// Document returns the revision viewed as a plain document under its
// logical document key.
func (r *Revision) Document() *Document {
	return &Document{
		Key:      r.DocID,
		Payload:  r.Payload,
		Metadata: r.Metadata,
		ETag:     r.ETag,
	}
}

// RevisionKey formats the addressable key of revision n of docID.
func RevisionKey(docID string, n int) string {
	return docID + temporal.RevisionKeySeparator + strconv.Itoa(n)
}

// ParseRevisionKey splits a revision key into its document key and revision
// number. ok is false when key is not a revision key.
func ParseRevisionKey(key string) (docID string, n int, ok bool) {
	i := strings.LastIndex(key, temporal.RevisionKeySeparator)
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(key[i+len(temporal.RevisionKeySeparator):])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return key[:i], n, true
}

// validateRevision rejects rows that would corrupt a chain if persisted.
func validateRevision(r *Revision) error {
	if r.DocID == "" {
		return fmt.Errorf("revision has empty doc id")
	}
	if r.Number < 1 {
		return fmt.Errorf("revision %s has number %d, must be >= 1", r.DocID, r.Number)
	}
	if r.Metadata == nil {
		return fmt.Errorf("revision %s#%d has nil metadata", r.DocID, r.Number)
	}
	return nil
}
