package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/tvd/internal/store"
)

func TestRetryOnConflict_SucceedsOnRetry(t *testing.T) {
	cfg := retryConfig{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: time.Millisecond}

	attempts := 0
	err := retryOnConflict(cfg, func() error {
		attempts++
		if attempts < 3 {
			return NewConflictError("employees/1", 1)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestRetryOnConflict_ExhaustsBound(t *testing.T) {
	cfg := retryConfig{maxRetries: 2, baseDelay: time.Millisecond, maxDelay: time.Millisecond}

	attempts := 0
	err := retryOnConflict(cfg, func() error {
		attempts++
		return NewConflictError("employees/1", 1)
	})
	require.True(t, IsConflict(err))
	require.Equal(t, 3, attempts, "initial attempt plus maxRetries")
}

func TestRetryOnConflict_NonConflictNotRetried(t *testing.T) {
	cfg := retryConfig{maxRetries: 3, baseDelay: time.Millisecond, maxDelay: time.Millisecond}

	sentinel := errors.New("disk on fire")
	attempts := 0
	err := retryOnConflict(cfg, func() error {
		attempts++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, attempts)
}

// A rival writer moves the document head between the plan's head read and
// the commit. The write must lose the expected-head check, replan against
// the new head, and succeed on the retry.
//
// The rival write fires from inside the clock source, which the plan reads
// exactly once per attempt after loading the head.
func TestWrite_RetriesAfterHeadMoves(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	rivalBase := time.Date(2012, 5, 1, 0, 0, 0, 0, time.UTC)
	rival := New(st, WithClock(NewClockWithSource(func() time.Time { return rivalBase })))

	reads := 0
	source := func() time.Time {
		reads++
		if reads == 1 {
			_, werr := rival.Write(ctx, "employees/1", payload(t, employee{"Mary", 20}), jan, false)
			require.NoError(t, werr)
		}
		return time.Date(2012, 6, 1, 0, 0, reads, 0, time.UTC)
	}
	eng := New(st, WithClock(NewClockWithSource(source)))

	head, err := eng.Write(ctx, "employees/1", payload(t, employee{"John", 30}), feb, false)
	require.NoError(t, err)
	require.Equal(t, 2, head.Number, "retry must supersede the rival's head")
	require.Equal(t, 2, reads, "one plan per attempt: the lost attempt and the retry")

	revs, err := eng.Revisions(ctx, "employees/1", 0, 0)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	requireChainInvariants(t, revs)
	require.True(t, revs[0].EffectiveStart.Equal(jan), "rival's revision survives as the closed predecessor")
	require.True(t, revs[1].EffectiveStart.Equal(feb))
}

// With the retry budget at zero a single lost head race surfaces as a
// write-conflict error instead of being retried.
func TestWrite_ConflictSurfacedWhenRetriesExhausted(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	rivalBase := time.Date(2012, 5, 1, 0, 0, 0, 0, time.UTC)
	rival := New(st, WithClock(NewClockWithSource(func() time.Time { return rivalBase })))

	reads := 0
	source := func() time.Time {
		reads++
		// Move the head on every attempt so no retry could ever win.
		_, werr := rival.Write(ctx, "employees/1", payload(t, employee{"Mary", 20}), jan.AddDate(0, 0, reads), false)
		require.NoError(t, werr)
		return time.Date(2012, 6, 1, 0, 0, reads, 0, time.UTC)
	}
	eng := New(st, WithClock(NewClockWithSource(source)), WithMaxConflictRetries(0))

	_, err = eng.Write(ctx, "employees/1", payload(t, employee{"John", 30}), time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC), false)
	require.True(t, IsConflict(err))

	var ee *Error
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrCodeConflict, ee.Code)
	require.Equal(t, "employees/1", ee.DocumentID)
	require.Equal(t, 1, reads, "zero retries means exactly one attempt")
}

func TestBackoffDelay_CappedAtMax(t *testing.T) {
	cfg := retryConfig{maxRetries: 10, baseDelay: 10 * time.Millisecond, maxDelay: 40 * time.Millisecond}

	for attempt := 0; attempt < 10; attempt++ {
		d := backoffDelay(cfg, attempt)
		require.GreaterOrEqual(t, d, cfg.baseDelay<<uint(min(attempt, 2)))
		require.Less(t, d, cfg.maxDelay+cfg.baseDelay, "delay must stay within maxDelay plus jitter")
	}
}
