package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/corvid-labs/tvd/internal/temporal"
)

// Get fetches the document addressed by key, running the post-read
// pipeline. Revision keys ("<doc>/temporalrevisions/<n>") are routed to the
// revision chain directly and bypass interception - explicit history access
// is never rewritten.
//
// Returns nil with no error when nothing is visible at key.
func (s *Store) Get(ctx context.Context, key string) (*Document, error) {
	if docID, n, ok := ParseRevisionKey(key); ok {
		rev, err := s.GetRevision(ctx, docID, n)
		if err != nil || rev == nil {
			return nil, err
		}
		doc := rev.Document()
		doc.Key = key
		return doc, nil
	}

	doc, err := s.GetRoot(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.runPostRead(ctx, key, doc)
}

// GetRoot fetches the root row for key without interception.
// Returns nil with no error when no root row exists.
func (s *Store) GetRoot(ctx context.Context, key string) (*Document, error) {
	var payload, metaJSON, etag string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, metadata, etag FROM documents WHERE key = ?
	`, key).Scan(&payload, &metaJSON, &etag)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get root %s: %w", key, err)
	}

	bag, err := UnmarshalBag([]byte(metaJSON))
	if err != nil {
		return nil, fmt.Errorf("get root %s: %w", key, err)
	}
	return &Document{
		Key:      key,
		Payload:  json.RawMessage(payload),
		Metadata: bag,
		ETag:     etag,
	}, nil
}

// HeadRevision returns the single open revision (assertedUntil = infinity)
// of docID, or nil when the document has no revision chain.
func (s *Store) HeadRevision(ctx context.Context, docID string) (*Revision, error) {
	row := s.db.QueryRowContext(ctx, revisionColumns+`
		FROM revisions
		WHERE doc_id = ? AND asserted_until = ?
	`, docID, int64(math.MaxInt64))
	return scanRevision(row, docID, "head")
}

// GetRevision returns revision n of docID, or nil when absent.
func (s *Store) GetRevision(ctx context.Context, docID string, n int) (*Revision, error) {
	row := s.db.QueryRowContext(ctx, revisionColumns+`
		FROM revisions
		WHERE doc_id = ? AND revision = ?
	`, docID, n)
	return scanRevision(row, docID, fmt.Sprintf("#%d", n))
}

// RevisionAt returns the revision whose effective interval contains the
// given instant: effectiveStart <= effective < effectiveUntil. The chain
// partitions effective time, so at most one row matches; nil when the
// instant precedes the first revision or no chain exists.
func (s *Store) RevisionAt(ctx context.Context, docID string, effective time.Time) (*Revision, error) {
	n := temporal.ToNanos(effective)
	row := s.db.QueryRowContext(ctx, revisionColumns+`
		FROM revisions
		WHERE doc_id = ? AND effective_start <= ? AND ? < effective_until
		ORDER BY revision DESC
		LIMIT 1
	`, docID, n, n)
	return scanRevision(row, docID, "at "+effective.Format(temporal.TimeFormat))
}

// Revisions returns the chain for docID ordered by revision number
// ascending, including tombstones, skipping the first skip rows and
// returning at most take rows. take <= 0 means no limit.
func (s *Store) Revisions(ctx context.Context, docID string, skip, take int) ([]*Revision, error) {
	if skip < 0 {
		skip = 0
	}
	limit := take
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, revisionColumns+`
		FROM revisions
		WHERE doc_id = ?
		ORDER BY revision ASC
		LIMIT ? OFFSET ?
	`, docID, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("revisions %s: %w", docID, err)
	}
	defer rows.Close()

	var revisions []*Revision
	for rows.Next() {
		rev, err := scanRevisionRow(rows, docID)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions %s: %w", docID, err)
	}

	// Return empty slice instead of nil
	if revisions == nil {
		revisions = []*Revision{}
	}
	return revisions, nil
}

const revisionColumns = `
	SELECT doc_id, revision, status, effective_start, effective_until,
	       asserted_start, asserted_until, deleted, pending, payload, metadata, etag
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevisionRow(sc rowScanner, docID string) (*Revision, error) {
	var rev Revision
	var status, payload, metaJSON, etag string
	var effStart, effUntil, assStart, assUntil int64
	var deleted, pending int
	err := sc.Scan(&rev.DocID, &rev.Number, &status, &effStart, &effUntil,
		&assStart, &assUntil, &deleted, &pending, &payload, &metaJSON, &etag)
	if err != nil {
		return nil, fmt.Errorf("scan revision %s: %w", docID, err)
	}

	bag, err := UnmarshalBag([]byte(metaJSON))
	if err != nil {
		return nil, fmt.Errorf("scan revision %s#%d: %w", docID, rev.Number, err)
	}

	rev.Status = temporal.ParseStatus(status)
	rev.EffectiveStart = temporal.FromNanos(effStart)
	rev.EffectiveUntil = temporal.FromNanos(effUntil)
	rev.AssertedStart = temporal.FromNanos(assStart)
	rev.AssertedUntil = temporal.FromNanos(assUntil)
	rev.Deleted = deleted != 0
	rev.Pending = pending != 0
	rev.Payload = json.RawMessage(payload)
	rev.Metadata = bag
	rev.ETag = etag
	return &rev, nil
}

func scanRevision(row *sql.Row, docID, what string) (*Revision, error) {
	rev, err := scanRevisionRow(row, docID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("revision %s %s: %w", docID, what, err)
	}
	return rev, nil
}
