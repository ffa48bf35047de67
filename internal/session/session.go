// Package session carries the per-operation requested effective date.
//
// The effective date is scoped to exactly one operation: it rides on a
// derived context.Context established immediately before the call and
// discarded with it, so a shared engine or store handle never leaks
// temporal context into subsequent unrelated operations - including on
// error paths, where the derived context simply goes out of scope.
package session

import (
	"context"
	"time"
)

type effectiveKey struct{}

// WithEffective returns a context carrying t as the requested effective
// date for the operations invoked with it.
func WithEffective(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, effectiveKey{}, t.UTC())
}

// EffectiveFrom returns the requested effective date carried by ctx, if any.
func EffectiveFrom(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(effectiveKey{}).(time.Time)
	return t, ok
}

// WithoutEffective strips any requested effective date from ctx. Used when
// an operation must see current state regardless of inherited context.
func WithoutEffective(ctx context.Context) context.Context {
	if _, ok := EffectiveFrom(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, effectiveKey{}, nil)
}
