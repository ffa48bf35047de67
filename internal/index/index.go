// Package index answers aggregate questions about the currently effective
// document set.
//
// "Current" here means the open head of each revision chain (assertedUntil
// still infinity) that is not a tombstone and whose effective interval
// contains the as-of instant. A revision asserted ahead of time does not
// count until its effective date arrives, and a tombstoned chain stops
// counting the moment its delete commits. These are derived reads over the
// revision table; the package never writes.
package index

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/corvid-labs/tvd/internal/store"
	"github.com/corvid-labs/tvd/internal/temporal"
)

// Index computes aggregations over a store's revision chains.
type Index struct {
	store *store.Store
}

// New returns an Index reading from st.
func New(st *store.Store) *Index {
	return &Index{store: st}
}

// CurrentCount returns the number of documents with the given key prefix
// that are effective and not deleted at the as-of instant.
func (ix *Index) CurrentCount(ctx context.Context, prefix string, asOf time.Time) (int, error) {
	n := temporal.ToNanos(asOf.UTC())
	var count int
	err := ix.store.DB().QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM revisions
		WHERE doc_id LIKE ? ESCAPE '\'
		  AND asserted_until = ?
		  AND deleted = 0
		  AND effective_start <= ? AND ? < effective_until
	`, store.LikePrefix(prefix), int64(math.MaxInt64), n, n).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("current count %q: %w", prefix, err)
	}
	return count, nil
}

// CurrentKeys returns the document keys counted by CurrentCount, ordered by
// key ascending.
func (ix *Index) CurrentKeys(ctx context.Context, prefix string, asOf time.Time) ([]string, error) {
	n := temporal.ToNanos(asOf.UTC())
	rows, err := ix.store.DB().QueryContext(ctx, `
		SELECT doc_id
		FROM revisions
		WHERE doc_id LIKE ? ESCAPE '\'
		  AND asserted_until = ?
		  AND deleted = 0
		  AND effective_start <= ? AND ? < effective_until
		ORDER BY doc_id ASC
	`, store.LikePrefix(prefix), int64(math.MaxInt64), n, n)
	if err != nil {
		return nil, fmt.Errorf("current keys %q: %w", prefix, err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan current key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate current keys: %w", err)
	}
	return keys, nil
}
