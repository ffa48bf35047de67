package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/corvid-labs/tvd/internal/session"
)

// QueryRequest selects root documents by key prefix. A requested effective
// date normally rides on the operation context and is applied by the
// registered read interceptors, exactly as it is for single-key loads;
// callers without a context channel can smuggle it through Includes
// instead.
type QueryRequest struct {
	// Prefix filters keys; empty matches every document.
	Prefix string

	// Includes lists extra document keys loaded alongside the matches,
	// through the same post-read pipeline. An entry carrying the
	// effective-date token (session.TokenPrefix) is not a key: it is
	// stripped before the query runs and applied as the operation's
	// requested effective date.
	Includes []string

	// Limit caps the number of prefix matches after interception; included
	// documents ride along uncounted. Zero or negative means no limit.
	Limit int
}

// Query returns visible documents matching the request, ordered by key.
//
// Candidate keys are the union of root rows and revision-chain document
// ids: a document whose head is a tombstone has no root row, but an
// interceptor resolving a historical effective date may still surface it.
// Each candidate runs through the post-read pipeline; nil results are
// dropped.
func (s *Store) Query(ctx context.Context, req QueryRequest) ([]*Document, error) {
	includes, effective, err := session.StripToken(req.Includes)
	if err != nil {
		return nil, err
	}
	if effective != nil {
		ctx = session.WithEffective(ctx, *effective)
	}

	pattern := LikePrefix(req.Prefix)

	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM documents WHERE key LIKE ? ESCAPE '\'
		UNION
		SELECT doc_id FROM revisions WHERE doc_id LIKE ? ESCAPE '\'
		ORDER BY 1 ASC
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("query keys %q: %w", req.Prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan query key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query keys: %w", err)
	}

	results := []*Document{}
	returned := map[string]bool{}
	for _, key := range keys {
		doc, err := s.GetRoot(ctx, key)
		if err != nil {
			return nil, err
		}
		doc, err = s.runPostRead(ctx, key, doc)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			continue
		}
		results = append(results, doc)
		returned[key] = true
		if req.Limit > 0 && len(results) >= req.Limit {
			break
		}
	}

	for _, key := range includes {
		if returned[key] {
			continue
		}
		returned[key] = true
		doc, err := s.GetRoot(ctx, key)
		if err != nil {
			return nil, err
		}
		doc, err = s.runPostRead(ctx, key, doc)
		if err != nil {
			return nil, err
		}
		if doc != nil {
			results = append(results, doc)
		}
	}
	return results, nil
}

// LikePrefix escapes LIKE metacharacters so a prefix is matched literally
// in a LIKE ... ESCAPE '\' clause.
func LikePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
