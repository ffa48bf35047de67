package engine

import (
	"context"

	"github.com/corvid-labs/tvd/internal/store"
)

// Revisions returns docID's chain ordered by revision number ascending,
// including tombstones and pending revisions, regardless of effective
// date. skip/take page through the chain; take <= 0 returns everything
// after skip. Read-only - audit and history tooling use this.
func (e *Engine) Revisions(ctx context.Context, docID string, skip, take int) ([]*store.Revision, error) {
	return e.store.Revisions(ctx, docID, skip, take)
}

// Revision returns one revision of docID by number, or a not-found error.
// Tombstones are returned like any other revision: explicit history access
// is never subject to visibility filtering.
func (e *Engine) Revision(ctx context.Context, docID string, number int) (*store.Revision, error) {
	rev, err := e.store.GetRevision(ctx, docID, number)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, NewNotFoundError(store.RevisionKey(docID, number))
	}
	return rev, nil
}
