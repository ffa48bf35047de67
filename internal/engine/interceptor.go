package engine

import (
	"context"
	"time"

	"github.com/corvid-labs/tvd/internal/session"
	"github.com/corvid-labs/tvd/internal/store"
	"github.com/corvid-labs/tvd/internal/temporal"
)

// Interceptor implementations. These hook the engine into the host store's
// generic put/get/query pipeline, so callers using the plain store API get
// temporal behavior without calling the engine directly.

// PreWrite implements store.WriteInterceptor.
//
// A put is temporal when the operation context carries a requested
// effective date, when the document's bag carries the transient
// Raven-Temporal-Effective key or a Revision status, or when the document
// already has a revision chain. Temporal puts are expanded into the full
// revision-chain batch; anything else is left to the store's default
// write.
//
// A temporal put with no explicit effective date is effective from the
// assertion instant. The transient key is always stripped - it must never
// be persisted.
func (e *Engine) PreWrite(ctx context.Context, doc *store.Document, b *store.Batch) (bool, error) {
	m := temporal.Wrap(doc.Metadata)

	effective, ok := session.EffectiveFrom(ctx)
	if t, found := m.Effective(); found {
		effective, ok = t, true
		m.SetEffective(time.Time{})
	}

	if !ok && m.Status() != temporal.StatusRevision {
		head, err := e.store.HeadRevision(ctx, doc.Key)
		if err != nil {
			return false, err
		}
		if head == nil {
			return false, nil
		}
	}

	if !ok {
		effective = e.clock.Now()
	}

	rev, _, err := e.plan(ctx, b, doc.Key, doc.Payload, doc.Metadata, effective, false)
	if err != nil {
		return false, err
	}
	doc.ETag = rev.ETag
	return true, nil
}

// PostRead implements store.ReadInterceptor.
//
// When the operation context carries a requested effective date, the
// result is swapped for the revision effective at that instant; tombstones
// and instants before the chain suppress the result. Documents the engine
// never touched pass through untouched, and reads without temporal context
// are never rewritten.
func (e *Engine) PostRead(ctx context.Context, key string, doc *store.Document) (*store.Document, error) {
	effective, ok := session.EffectiveFrom(ctx)
	if !ok {
		return doc, nil
	}

	rev, err := e.store.RevisionAt(ctx, key, effective)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		if doc != nil && temporal.Wrap(doc.Metadata).Status() == temporal.StatusNonTemporal {
			return doc, nil
		}
		return nil, nil
	}
	if rev.Deleted {
		return nil, nil
	}
	return rev.Document(), nil
}
