package store

import "context"

// Interceptor extension points.
//
// The revision engine plugs into the store through these two interfaces.
// Registration is explicit and owned by whoever wires the process together;
// there is no implicit global hook.

// WriteInterceptor sees every intended root-document write before it is
// applied. An interceptor may expand the write into the batch that actually
// commits (closing a chain head, inserting a new revision, replacing or
// removing the root row). Returning handled=true suppresses the default
// single-row upsert; the batch the interceptor filled is committed instead,
// atomically.
type WriteInterceptor interface {
	PreWrite(ctx context.Context, doc *Document, b *Batch) (handled bool, err error)
}

// ReadInterceptor sees every fetched document before it is returned, for
// single-key loads and for each query result alike. doc is nil when no root
// row exists for key; an interceptor may still produce a result (e.g. a
// historical revision) or suppress one by returning nil.
//
// Interceptors must not mutate doc in place; rewritten results are returned
// as fresh documents.
type ReadInterceptor interface {
	PostRead(ctx context.Context, key string, doc *Document) (*Document, error)
}

// RegisterWriteInterceptor appends i to the pre-write pipeline.
// Interceptors run in registration order; the first to handle a write wins.
// Not safe to call concurrently with store operations - register during
// process wiring.
func (s *Store) RegisterWriteInterceptor(i WriteInterceptor) {
	s.writeInterceptors = append(s.writeInterceptors, i)
}

// RegisterReadInterceptor appends i to the post-read pipeline.
// Interceptors run in registration order, each seeing the previous result.
func (s *Store) RegisterReadInterceptor(i ReadInterceptor) {
	s.readInterceptors = append(s.readInterceptors, i)
}

func (s *Store) runPostRead(ctx context.Context, key string, doc *Document) (*Document, error) {
	var err error
	for _, it := range s.readInterceptors {
		doc, err = it.PostRead(ctx, key, doc)
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}
