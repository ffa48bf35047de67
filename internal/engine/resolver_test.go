package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/tvd/internal/store"
)

func seedEmployee(t *testing.T, eng *Engine) {
	t.Helper()
	ctx := context.Background()
	_, err := eng.Write(ctx, "employees/1", payload(t, employee{"John", 10}), jan, false)
	require.NoError(t, err)
	_, err = eng.Write(ctx, "employees/1", payload(t, employee{"John", 40}), feb, false)
	require.NoError(t, err)
}

func payRate(t *testing.T, raw json.RawMessage) int {
	t.Helper()
	var emp employee
	require.NoError(t, json.Unmarshal(raw, &emp))
	return emp.PayRate
}

func TestResolve_CurrentReturnsHead(t *testing.T) {
	eng, _ := newTestEngine(t)
	seedEmployee(t, eng)

	doc, err := eng.Resolve(context.Background(), "employees/1", nil)
	require.NoError(t, err)
	require.Equal(t, "employees/1", doc.Key)
	require.Equal(t, 40, payRate(t, doc.Payload))
}

func TestResolve_EffectiveDateBoundaries(t *testing.T) {
	eng, _ := newTestEngine(t)
	seedEmployee(t, eng)
	ctx := context.Background()

	cases := []struct {
		name string
		at   time.Time
		want int
	}{
		{"exactly at revision start is inclusive", jan, 10},
		{"inside first interval", jan.AddDate(0, 0, 15), 10},
		{"exactly at effectiveUntil belongs to the successor", feb, 40},
		{"at or after head start returns the head", mar, 40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := eng.Resolve(ctx, "employees/1", &tc.at)
			require.NoError(t, err)
			require.Equal(t, tc.want, payRate(t, doc.Payload))
			// The result shape does not betray the revision match.
			require.Equal(t, "employees/1", doc.Key)
		})
	}
}

func TestResolve_BeforeFirstRevision(t *testing.T) {
	eng, _ := newTestEngine(t)
	seedEmployee(t, eng)

	early := jan.AddDate(-1, 0, 0)
	_, err := eng.Resolve(context.Background(), "employees/1", &early)
	require.Error(t, err)
	require.True(t, IsNotFound(err))

	var ee *Error
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrCodeNotVisible, ee.Code)
}

func TestResolve_UnknownIdentity(t *testing.T) {
	eng, _ := newTestEngine(t)

	_, err := eng.Resolve(context.Background(), "employees/404", nil)
	require.Error(t, err)
	require.True(t, IsNotFound(err))

	var ee *Error
	require.ErrorAs(t, err, &ee)
	require.Equal(t, ErrCodeNotFound, ee.Code, "unknown identity is distinct from a not-visible one")
}

func TestResolve_TombstoneIsNotVisible(t *testing.T) {
	eng, _ := newTestEngine(t)
	seedEmployee(t, eng)
	ctx := context.Background()

	_, err := eng.Delete(ctx, "employees/1", mar)
	require.NoError(t, err)

	// Current read and reads effective after the delete report not found.
	_, err = eng.Resolve(ctx, "employees/1", nil)
	require.True(t, IsNotFound(err))

	at := apr
	_, err = eng.Resolve(ctx, "employees/1", &at)
	require.True(t, IsNotFound(err))

	// History before the tombstone stays resolvable.
	at = feb
	doc, err := eng.Resolve(ctx, "employees/1", &at)
	require.NoError(t, err)
	require.Equal(t, 40, payRate(t, doc.Payload))

	// And the tombstone itself stays reachable by revision number.
	rev, err := eng.Revision(ctx, "employees/1", 3)
	require.NoError(t, err)
	require.True(t, rev.Deleted)
}

func TestResolve_Idempotent(t *testing.T) {
	eng, _ := newTestEngine(t)
	seedEmployee(t, eng)
	ctx := context.Background()

	at := jan.AddDate(0, 0, 10)
	first, err := eng.Resolve(ctx, "employees/1", &at)
	require.NoError(t, err)
	second, err := eng.Resolve(ctx, "employees/1", &at)
	require.NoError(t, err)

	require.Equal(t, first.ETag, second.ETag, "same revision identity")
	require.JSONEq(t, string(first.Payload), string(second.Payload))
}

func TestResolve_NonTemporalPassesThrough(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	// A document stored without temporal context has no chain, so
	// effective-dated reads serve it as-is.
	_, err := st.Put(ctx, &store.Document{
		Key:     "config/site",
		Payload: payload(t, employee{"Config", 0}),
	})
	require.NoError(t, err)

	at := jan
	got, err := eng.Resolve(ctx, "config/site", &at)
	require.NoError(t, err)
	require.Equal(t, "config/site", got.Key)
}
