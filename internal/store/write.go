package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/corvid-labs/tvd/internal/temporal"
)

// ErrConflict is returned when a batch's expected-head check fails: another
// writer moved the chain between the read that planned the batch and the
// transaction that tried to commit it. Callers retry or surface it.
var ErrConflict = errors.New("concurrent modification of document head")

// Batch accumulates writes that must commit atomically. A reader never
// observes a subset of a batch's effects.
type Batch struct {
	ops []batchOp
}

type batchOp interface {
	apply(ctx context.Context, ec execContext) error
}

// ExpectHead asserts, inside the commit transaction, that the open revision
// (assertedUntil = infinity) of docID is exactly (number, etag). Use
// number=0 to assert the chain does not exist yet. On mismatch the whole
// batch fails with ErrConflict.
func (b *Batch) ExpectHead(docID string, number int, etag string) {
	b.ops = append(b.ops, expectHeadOp{docID: docID, number: number, etag: etag})
}

// PutRevision inserts or overwrites a revision row. Overwriting is only
// legal for the two sanctioned mutations: amending an open head in place
// and closing a head's intervals at supersede time.
func (b *Batch) PutRevision(rev *Revision) {
	b.ops = append(b.ops, putRevisionOp{rev: rev})
}

// PutRoot inserts or replaces the root (current-view) row for doc.Key.
func (b *Batch) PutRoot(doc *Document) {
	b.ops = append(b.ops, putRootOp{doc: doc})
}

// DeleteRoot removes the root row for key, hiding the logical document from
// non-temporal reads. Deleting an absent root is a no-op.
func (b *Batch) DeleteRoot(key string) {
	b.ops = append(b.ops, deleteRootOp{key: key})
}

// Len returns the number of queued operations.
func (b *Batch) Len() int { return len(b.ops) }

// Commit applies the batch in one SQLite transaction. Either every
// operation takes effect or none does; an ExpectHead mismatch aborts with
// ErrConflict.
func (s *Store) Commit(ctx context.Context, b *Batch) error {
	if b.Len() == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit batch: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, op := range b.ops {
		if err := op.apply(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Put writes a root document through the pre-write pipeline. If a write
// interceptor handles the document (a temporal put), the batch it built is
// committed; otherwise a plain single-row upsert commits. Returns the etag
// of the stored root.
func (s *Store) Put(ctx context.Context, doc *Document) (string, error) {
	if doc.Key == "" {
		return "", fmt.Errorf("put: empty document key")
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]string{}
	}

	b := &Batch{}
	for _, it := range s.writeInterceptors {
		handled, err := it.PreWrite(ctx, doc, b)
		if err != nil {
			return "", err
		}
		if handled {
			if err := s.Commit(ctx, b); err != nil {
				return "", err
			}
			return doc.ETag, nil
		}
	}

	doc.ETag = NewETag()
	b.PutRoot(doc)
	if err := s.Commit(ctx, b); err != nil {
		return "", err
	}
	return doc.ETag, nil
}

type expectHeadOp struct {
	docID  string
	number int
	etag   string
}

func (op expectHeadOp) apply(ctx context.Context, ec execContext) error {
	var number int
	var etag string
	err := ec.QueryRowContext(ctx, `
		SELECT revision, etag
		FROM revisions
		WHERE doc_id = ? AND asserted_until = ?
	`, op.docID, int64(math.MaxInt64)).Scan(&number, &etag)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if op.number != 0 {
			return fmt.Errorf("expect head %s#%d: chain is gone: %w", op.docID, op.number, ErrConflict)
		}
		return nil
	case err != nil:
		return fmt.Errorf("expect head %s: %w", op.docID, err)
	}

	if op.number == 0 {
		return fmt.Errorf("expect no chain for %s, found head #%d: %w", op.docID, number, ErrConflict)
	}
	if number != op.number || etag != op.etag {
		return fmt.Errorf("expect head %s#%d, found #%d: %w", op.docID, op.number, number, ErrConflict)
	}
	return nil
}

type putRevisionOp struct {
	rev *Revision
}

func (op putRevisionOp) apply(ctx context.Context, ec execContext) error {
	rev := op.rev
	if err := validateRevision(rev); err != nil {
		return fmt.Errorf("put revision: %w", err)
	}

	metaJSON, err := MarshalBag(rev.Metadata)
	if err != nil {
		return fmt.Errorf("put revision %s#%d: %w", rev.DocID, rev.Number, err)
	}
	payload, err := CanonicalPayload(rev.Payload)
	if err != nil {
		return fmt.Errorf("put revision %s#%d: %w", rev.DocID, rev.Number, err)
	}

	_, err = ec.ExecContext(ctx, `
		INSERT INTO revisions
		(doc_id, revision, status, effective_start, effective_until,
		 asserted_start, asserted_until, deleted, pending, payload, metadata, etag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id, revision) DO UPDATE SET
			status = excluded.status,
			effective_start = excluded.effective_start,
			effective_until = excluded.effective_until,
			asserted_start = excluded.asserted_start,
			asserted_until = excluded.asserted_until,
			deleted = excluded.deleted,
			pending = excluded.pending,
			payload = excluded.payload,
			metadata = excluded.metadata,
			etag = excluded.etag
	`,
		rev.DocID,
		rev.Number,
		rev.Status.String(),
		temporal.ToNanos(rev.EffectiveStart),
		temporal.ToNanos(rev.EffectiveUntil),
		temporal.ToNanos(rev.AssertedStart),
		temporal.ToNanos(rev.AssertedUntil),
		boolToInt(rev.Deleted),
		boolToInt(rev.Pending),
		string(payload),
		string(metaJSON),
		rev.ETag,
	)
	if err != nil {
		return fmt.Errorf("put revision %s#%d: %w", rev.DocID, rev.Number, err)
	}
	return nil
}

type putRootOp struct {
	doc *Document
}

func (op putRootOp) apply(ctx context.Context, ec execContext) error {
	doc := op.doc
	metaJSON, err := MarshalBag(doc.Metadata)
	if err != nil {
		return fmt.Errorf("put root %s: %w", doc.Key, err)
	}
	payload, err := CanonicalPayload(doc.Payload)
	if err != nil {
		return fmt.Errorf("put root %s: %w", doc.Key, err)
	}

	_, err = ec.ExecContext(ctx, `
		INSERT INTO documents (key, payload, metadata, etag)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			metadata = excluded.metadata,
			etag = excluded.etag
	`, doc.Key, string(payload), string(metaJSON), doc.ETag)
	if err != nil {
		return fmt.Errorf("put root %s: %w", doc.Key, err)
	}
	return nil
}

type deleteRootOp struct {
	key string
}

func (op deleteRootOp) apply(ctx context.Context, ec execContext) error {
	if _, err := ec.ExecContext(ctx, `DELETE FROM documents WHERE key = ?`, op.key); err != nil {
		return fmt.Errorf("delete root %s: %w", op.key, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
