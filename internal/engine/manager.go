package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corvid-labs/tvd/internal/store"
	"github.com/corvid-labs/tvd/internal/temporal"
)

// Write records a new fact about docID, effective from the given date.
//
// The first write of a document creates revision #1. A write at exactly the
// head's effectiveStart is a correction: the head is amended in place and
// no revision number is allocated. A strictly later effective date closes
// the head's effective and asserted intervals and inserts the superseding
// revision. An earlier effective date is rejected with an ordering
// violation and leaves the chain unchanged.
//
// The closed-head update, the new-revision insert, and the root-view update
// commit as one atomic batch. Conflicts with concurrent writers on the same
// document are retried a bounded number of times, then surfaced.
//
// Returns the revision that is the chain head after the write.
func (e *Engine) Write(ctx context.Context, docID string, payload json.RawMessage, effective time.Time, isDelete bool) (*store.Revision, error) {
	if docID == "" {
		return nil, fmt.Errorf("write: empty document id")
	}
	effective = effective.UTC()

	var head *store.Revision
	err := retryOnConflict(e.retry, func() error {
		b := &store.Batch{}
		rev, outcome, err := e.plan(ctx, b, docID, payload, nil, effective, isDelete)
		if err != nil {
			return err
		}
		if err := e.store.Commit(ctx, b); err != nil {
			if errors.Is(err, store.ErrConflict) {
				conflictRetriesTotal.Inc()
				e.log.Warn("write conflict on document head", "doc", docID, "effective", effective)
				return NewConflictError(docID, rev.Number)
			}
			return err
		}
		head = rev
		writesTotal.WithLabelValues(outcome).Inc()
		e.log.Debug("revision committed",
			"doc", docID, "revision", rev.Number, "outcome", outcome,
			"effective", effective, "deleted", rev.Deleted)
		return nil
	})
	if err != nil {
		switch {
		case IsConflict(err):
			writesTotal.WithLabelValues(outcomeConflict).Inc()
		case IsOrderingViolation(err):
			writesTotal.WithLabelValues(outcomeRejected).Inc()
		}
		return nil, err
	}
	return head, nil
}

// plan loads the current head and fills b with the batch that applies the
// write: expected-head assertion, revision rows, and the root-view change.
// Returns the revision that will be the head once b commits.
//
// meta carries the caller's metadata bag, if the write arrived with one.
// Its non-temporal keys land on the new revision, layered over the keys
// the prior head already carried; the temporal keys themselves are always
// recomputed from the planned intervals.
func (e *Engine) plan(ctx context.Context, b *store.Batch, docID string, payload json.RawMessage, meta map[string]string, effective time.Time, isDelete bool) (*store.Revision, string, error) {
	head, err := e.store.HeadRevision(ctx, docID)
	if err != nil {
		return nil, "", err
	}

	var rev *store.Revision
	var outcome string

	switch {
	case head == nil:
		b.ExpectHead(docID, 0, "")
		rev = newRevision(docID, 1, payload, foreignBag(meta), effective, e.clock.Now(), isDelete)
		outcome = outcomeCreate

	case effective.Equal(head.EffectiveStart):
		// Same-instant edits are corrections, not new facts: amend the
		// head in place, keeping its number and asserted interval.
		b.ExpectHead(docID, head.Number, head.ETag)
		rev = amendRevision(head, payload, meta, isDelete)
		outcome = outcomeAmend

	case effective.Before(head.EffectiveStart):
		return nil, "", NewOrderingViolationError(docID, effective, head.EffectiveStart)

	default:
		b.ExpectHead(docID, head.Number, head.ETag)
		now := e.clock.Now()
		b.PutRevision(closeRevision(head, effective, now))
		rev = newRevision(docID, NextRevisionNumber(head.Number), payload, foreignBag(head.Metadata, meta), effective, now, isDelete)
		outcome = outcomeSupersede
	}

	if isDelete {
		outcome = outcomeTombstone
	}

	b.PutRevision(rev)
	if rev.Deleted {
		// The logical document disappears from non-temporal reads while
		// the tombstone remains in history.
		b.DeleteRoot(docID)
	} else {
		b.PutRoot(rootDocument(rev))
	}
	return rev, outcome, nil
}

// newRevision builds an open revision: effective [effective, inf),
// asserted [asserted, inf). The metadata bag and the denormalized fields
// are written together so index consumers always see consistent bounds.
func newRevision(docID string, number int, payload json.RawMessage, bag map[string]string, effective, asserted time.Time, isDelete bool) *store.Revision {
	rev := &store.Revision{
		DocID:          docID,
		Number:         number,
		Status:         temporal.StatusRevision,
		EffectiveStart: effective,
		EffectiveUntil: temporal.Infinity,
		AssertedStart:  asserted,
		AssertedUntil:  temporal.Infinity,
		Deleted:        isDelete,
		Pending:        effective.After(asserted),
		Payload:        payload,
		Metadata:       bag,
		ETag:           store.NewETag(),
	}
	syncMetadata(rev)
	return rev
}

// amendRevision overwrites the head's payload and tombstone flag in place.
// Interval bounds and the revision number are untouched; caller metadata,
// when present, is layered over the head's bag.
func amendRevision(head *store.Revision, payload json.RawMessage, meta map[string]string, isDelete bool) *store.Revision {
	rev := *head
	rev.Payload = payload
	rev.Deleted = isDelete
	rev.ETag = store.NewETag()
	rev.Metadata = foreignBag(head.Metadata, meta)
	syncMetadata(&rev)
	return &rev
}

// closeRevision closes a superseded head: its effectiveUntil becomes the
// successor's effectiveStart and its assertedUntil the successor's
// assertedStart. This is the only mutation a revision ever sees after
// creation.
func closeRevision(head *store.Revision, effectiveUntil, assertedUntil time.Time) *store.Revision {
	rev := *head
	rev.EffectiveUntil = effectiveUntil
	rev.AssertedUntil = assertedUntil
	rev.ETag = store.NewETag()
	rev.Metadata = cloneBag(head.Metadata)
	syncMetadata(&rev)
	return &rev
}

// rootDocument is the current-view copy of an open head revision, stored
// under the logical document key with status Current.
func rootDocument(rev *store.Revision) *store.Document {
	doc := rev.Document().Clone()
	temporal.Wrap(doc.Metadata).SetStatus(temporal.StatusCurrent)
	return doc
}

// syncMetadata rewrites the temporal keys of rev's bag from its fields.
func syncMetadata(rev *store.Revision) {
	m := temporal.Wrap(rev.Metadata)
	m.SetRevisionNumber(rev.Number)
	m.SetStatus(rev.Status)
	m.SetEffectiveStart(rev.EffectiveStart)
	m.SetEffectiveUntil(rev.EffectiveUntil)
	m.SetAssertedStart(rev.AssertedStart)
	m.SetAssertedUntil(rev.AssertedUntil)
	m.SetDeleted(rev.Deleted)
	m.SetPending(rev.Pending)
}

func cloneBag(bag map[string]string) map[string]string {
	out := make(map[string]string, len(bag))
	for k, v := range bag {
		out[k] = v
	}
	return out
}

// foreignBag merges the caller-owned keys of bags in order, later bags
// overriding earlier ones. Temporal keys never pass through here: they are
// recomputed by syncMetadata from the revision's fields, so a stale or
// forged temporal key in the input cannot leak into a revision.
func foreignBag(bags ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, bag := range bags {
		for k, v := range bag {
			if temporal.IsTemporalKey(k) {
				continue
			}
			out[k] = v
		}
	}
	return out
}
