package engine

import (
	"context"
	"time"

	"github.com/corvid-labs/tvd/internal/store"
	"github.com/corvid-labs/tvd/internal/temporal"
)

// Resolve selects the document state visible at the requested effective
// date.
//
// With effective nil, the current head is returned: the root-view document
// if the head is live, a not-visible error if it is a tombstone. With an
// effective date, the revision whose interval contains the instant
// (effectiveStart <= e < effectiveUntil) is returned under the logical
// document key, so the caller cannot tell a historical match from the
// head. An instant before the first revision, or a resolved tombstone,
// reports not visible; an identity with no record at all reports not
// found.
//
// Resolution is read-only and idempotent: the same (docID, effective) pair
// resolves to the same revision until the next committed write.
func (e *Engine) Resolve(ctx context.Context, docID string, effective *time.Time) (*store.Document, error) {
	if effective == nil {
		return e.resolveCurrent(ctx, docID)
	}

	rev, err := e.store.RevisionAt(ctx, docID, effective.UTC())
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return e.resolveMiss(ctx, docID)
	}
	if rev.Deleted {
		resolvesTotal.WithLabelValues(resultNotFound).Inc()
		return nil, NewNotVisibleError(docID, "document is deleted at the requested effective date")
	}

	if temporal.IsInfinity(rev.AssertedUntil) {
		resolvesTotal.WithLabelValues(resultCurrent).Inc()
	} else {
		resolvesTotal.WithLabelValues(resultRevision).Inc()
	}
	return rev.Document(), nil
}

// resolveCurrent serves the no-effective-date read from the root view.
func (e *Engine) resolveCurrent(ctx context.Context, docID string) (*store.Document, error) {
	doc, err := e.store.GetRoot(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		resolvesTotal.WithLabelValues(resultCurrent).Inc()
		return doc, nil
	}

	// No root row: either a tombstoned chain head or an unknown identity.
	head, err := e.store.HeadRevision(ctx, docID)
	if err != nil {
		return nil, err
	}
	resolvesTotal.WithLabelValues(resultNotFound).Inc()
	if head != nil {
		return nil, NewNotVisibleError(docID, "current document is deleted")
	}
	return nil, NewNotFoundError(docID)
}

// resolveMiss distinguishes "effective date precedes the chain" from "no
// such document", and lets non-temporal documents pass through untouched.
func (e *Engine) resolveMiss(ctx context.Context, docID string) (*store.Document, error) {
	head, err := e.store.HeadRevision(ctx, docID)
	if err != nil {
		return nil, err
	}
	if head != nil {
		resolvesTotal.WithLabelValues(resultNotFound).Inc()
		return nil, NewNotVisibleError(docID, "effective date precedes the first revision")
	}

	doc, err := e.store.GetRoot(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc != nil && temporal.Wrap(doc.Metadata).Status() == temporal.StatusNonTemporal {
		// Documents the engine never touched resolve to themselves at
		// every effective date.
		resolvesTotal.WithLabelValues(resultCurrent).Inc()
		return doc, nil
	}
	resolvesTotal.WithLabelValues(resultNotFound).Inc()
	return nil, NewNotFoundError(docID)
}
