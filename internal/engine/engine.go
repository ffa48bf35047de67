package engine

import (
	"log/slog"

	"github.com/corvid-labs/tvd/internal/store"
)

// Engine is the revision engine. It owns the write-path decision
// (amend vs. supersede vs. reject), revision numbering, interval closing,
// and as-of read resolution. Storage belongs to the host store; the engine
// only plans batches and asks the store to commit them atomically.
//
// Engine implements store.WriteInterceptor and store.ReadInterceptor, so
// the host store's generic put/get/query pipeline can be wired to route
// temporal documents through it. Registration is explicit:
//
//	eng := engine.New(st)
//	st.RegisterWriteInterceptor(eng)
//	st.RegisterReadInterceptor(eng)
type Engine struct {
	store *store.Store
	clock *Clock
	log   *slog.Logger
	retry retryConfig
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the asserted-time clock. Tests and the conformance
// harness use a deterministic source.
func WithClock(c *Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMaxConflictRetries bounds how many times a write is retried after
// losing the expected-head check before the conflict is surfaced.
func WithMaxConflictRetries(n int) Option {
	return func(e *Engine) { e.retry.maxRetries = n }
}

// New creates an Engine over st.
func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		clock: NewClock(),
		log:   slog.Default(),
		retry: defaultRetryConfig,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
