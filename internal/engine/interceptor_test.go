package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/corvid-labs/tvd/internal/session"
	"github.com/corvid-labs/tvd/internal/store"
	"github.com/corvid-labs/tvd/internal/temporal"
)

func TestPut_SessionEffectiveDrivesChain(t *testing.T) {
	eng, st := newTestEngine(t)
	base := context.Background()

	_, err := st.Put(session.WithEffective(base, jan), &store.Document{
		Key:      "employees/1",
		Payload:  payload(t, employee{"John", 10}),
		Metadata: map[string]string{},
	})
	require.NoError(t, err)

	_, err = st.Put(session.WithEffective(base, feb), &store.Document{
		Key:      "employees/1",
		Payload:  payload(t, employee{"John", 40}),
		Metadata: map[string]string{},
	})
	require.NoError(t, err)

	revs, err := eng.Revisions(base, "employees/1", 0, 0)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	requireChainInvariants(t, revs)
	require.True(t, revs[0].EffectiveStart.Equal(jan))
	require.True(t, revs[1].EffectiveStart.Equal(feb))
}

func TestPut_TransientBagKeyStripped(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	doc := &store.Document{
		Key:      "employees/1",
		Payload:  payload(t, employee{"John", 10}),
		Metadata: map[string]string{},
	}
	temporal.Wrap(doc.Metadata).SetEffective(jan)

	_, err := st.Put(ctx, doc)
	require.NoError(t, err)

	head, err := eng.Revision(ctx, "employees/1", 1)
	require.NoError(t, err)
	require.True(t, head.EffectiveStart.Equal(jan), "bag-carried effective date honored")
	_, found := temporal.Wrap(head.Metadata).Effective()
	require.False(t, found, "transient key must not be persisted on the revision")

	root, err := st.GetRoot(ctx, "employees/1")
	require.NoError(t, err)
	require.NotNil(t, root)
	_, found = temporal.Wrap(root.Metadata).Effective()
	require.False(t, found, "transient key must not be persisted on the root")
}

func TestPut_CallerMetadataPreserved(t *testing.T) {
	eng, st := newTestEngine(t)
	base := context.Background()

	_, err := st.Put(session.WithEffective(base, jan), &store.Document{
		Key:      "employees/1",
		Payload:  payload(t, employee{"John", 10}),
		Metadata: map[string]string{"Content-Type": "application/json"},
	})
	require.NoError(t, err)

	// The caller's keys land on the revision and on the root view, next to
	// the temporal keys the engine writes.
	rev, err := eng.Revision(base, "employees/1", 1)
	require.NoError(t, err)
	require.Equal(t, "application/json", rev.Metadata["Content-Type"])
	require.Equal(t, 1, temporal.Wrap(rev.Metadata).RevisionNumber())

	root, err := st.GetRoot(base, "employees/1")
	require.NoError(t, err)
	require.NotNil(t, root)
	require.Equal(t, "application/json", root.Metadata["Content-Type"])

	// A supersede without metadata carries the head's foreign keys forward.
	_, err = eng.Write(base, "employees/1", payload(t, employee{"John", 40}), feb, false)
	require.NoError(t, err)

	head, err := eng.Revision(base, "employees/1", 2)
	require.NoError(t, err)
	require.Equal(t, "application/json", head.Metadata["Content-Type"])

	// A later put overrides the inherited value.
	_, err = st.Put(session.WithEffective(base, mar), &store.Document{
		Key:      "employees/1",
		Payload:  payload(t, employee{"John", 60}),
		Metadata: map[string]string{"Content-Type": "application/cbor"},
	})
	require.NoError(t, err)

	root, err = st.GetRoot(base, "employees/1")
	require.NoError(t, err)
	require.Equal(t, "application/cbor", root.Metadata["Content-Type"])

	// Temporal keys smuggled in by the caller never survive: the engine
	// recomputes them from the planned intervals.
	_, err = st.Put(session.WithEffective(base, apr), &store.Document{
		Key:     "employees/1",
		Payload: payload(t, employee{"John", 80}),
		Metadata: map[string]string{
			temporal.KeyRevision: "99",
			"Reviewed-By":        "hr",
		},
	})
	require.NoError(t, err)

	head, err = eng.Revision(base, "employees/1", 4)
	require.NoError(t, err)
	require.Equal(t, 4, temporal.Wrap(head.Metadata).RevisionNumber())
	require.Equal(t, "hr", head.Metadata["Reviewed-By"])
}

func TestPut_PlainWriteOnChainSupersedesNow(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Write(ctx, "employees/1", payload(t, employee{"John", 10}), jan, false)
	require.NoError(t, err)

	// An undated put against a temporal document still goes through the
	// chain, effective from the assertion instant.
	_, err = st.Put(ctx, &store.Document{
		Key:      "employees/1",
		Payload:  payload(t, employee{"John", 40}),
		Metadata: map[string]string{},
	})
	require.NoError(t, err)

	revs, err := eng.Revisions(ctx, "employees/1", 0, 0)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	requireChainInvariants(t, revs)
	require.False(t, revs[1].Pending, "effective-now write is never pending")
	require.False(t, revs[1].AssertedStart.Before(revs[1].EffectiveStart))
}

func TestPut_PlainWriteWithoutChainStaysNonTemporal(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	_, err := st.Put(ctx, &store.Document{
		Key:     "config/site",
		Payload: payload(t, employee{"Config", 0}),
	})
	require.NoError(t, err)

	revs, err := eng.Revisions(ctx, "config/site", 0, 0)
	require.NoError(t, err)
	require.Empty(t, revs, "no chain is started for an undated first write")

	doc, err := st.Get(ctx, "config/site")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, temporal.StatusNonTemporal, temporal.Wrap(doc.Metadata).Status())
}

func TestGet_SessionEffectiveSteersRead(t *testing.T) {
	eng, st := newTestEngine(t)
	seedEmployee(t, eng)
	base := context.Background()

	mid := jan.AddDate(0, 0, 15)
	doc, err := st.Get(session.WithEffective(base, mid), "employees/1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, "employees/1", doc.Key, "historical reads keep the logical key")
	require.Equal(t, 10, payRate(t, doc.Payload))

	// Without temporal context the head is served untouched.
	doc, err = st.Get(base, "employees/1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, 40, payRate(t, doc.Payload))

	// WithoutEffective strips inherited context.
	stripped := session.WithoutEffective(session.WithEffective(base, mid))
	doc, err = st.Get(stripped, "employees/1")
	require.NoError(t, err)
	require.Equal(t, 40, payRate(t, doc.Payload))
}

func TestGet_DeletedAtEffectiveDateSuppressed(t *testing.T) {
	eng, st := newTestEngine(t)
	seedEmployee(t, eng)
	ctx := context.Background()

	_, err := eng.Delete(ctx, "employees/1", mar)
	require.NoError(t, err)

	doc, err := st.Get(session.WithEffective(ctx, apr), "employees/1")
	require.NoError(t, err)
	require.Nil(t, doc)

	// Before the tombstone the document is still visible.
	doc, err = st.Get(session.WithEffective(ctx, feb), "employees/1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, 40, payRate(t, doc.Payload))
}

func TestGet_RevisionKeyBypassesSteering(t *testing.T) {
	eng, st := newTestEngine(t)
	seedEmployee(t, eng)
	ctx := context.Background()

	// Explicit revision addressing ignores any effective date on the
	// context.
	key := store.RevisionKey("employees/1", 1)
	doc, err := st.Get(session.WithEffective(ctx, mar), key)
	require.NoError(t, err)
	require.NotNil(t, doc)
	require.Equal(t, key, doc.Key)
	require.Equal(t, 10, payRate(t, doc.Payload))
	require.Equal(t, 1, temporal.Wrap(doc.Metadata).RevisionNumber())
}

func TestQuery_EffectiveDate(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Write(ctx, "employees/1", payload(t, employee{"John", 10}), jan, false)
	require.NoError(t, err)
	_, err = eng.Write(ctx, "employees/2", payload(t, employee{"Mary", 20}), jan, false)
	require.NoError(t, err)
	_, err = eng.Delete(ctx, "employees/1", mar)
	require.NoError(t, err)

	// Plain query sees only live heads: the tombstoned document is gone.
	docs, err := st.Query(ctx, store.QueryRequest{Prefix: "employees/"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "employees/2", docs[0].Key)

	// Effective before the delete surfaces both, including the document
	// whose head is now a tombstone.
	docs, err = st.Query(session.WithEffective(ctx, feb), store.QueryRequest{Prefix: "employees/"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "employees/1", docs[0].Key)
	require.Equal(t, 10, payRate(t, docs[0].Payload))

	// Effective after the delete drops it again.
	docs, err = st.Query(session.WithEffective(ctx, apr), store.QueryRequest{Prefix: "employees/"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "employees/2", docs[0].Key)
}

// Callers without a context channel steer bulk queries with the
// effective-date include token instead.
func TestQuery_EffectiveTokenSteersRead(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Write(ctx, "employees/1", payload(t, employee{"John", 10}), jan, false)
	require.NoError(t, err)
	_, err = eng.Write(ctx, "employees/1", payload(t, employee{"John", 40}), mar, false)
	require.NoError(t, err)
	_, err = eng.Write(ctx, "departments/1", payload(t, employee{"Sales", 0}), jan, false)
	require.NoError(t, err)

	// The token is stripped, never treated as a key, and steers every read
	// of the query, matches and includes alike.
	docs, err := st.Query(ctx, store.QueryRequest{
		Prefix:   "employees/",
		Includes: []string{session.EncodeToken(feb), "departments/1"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "employees/1", docs[0].Key)
	require.Equal(t, 10, payRate(t, docs[0].Payload), "token date selects the pre-raise revision")
	require.Equal(t, "departments/1", docs[1].Key)

	// A malformed token fails the query instead of matching nothing.
	_, err = st.Query(ctx, store.QueryRequest{
		Prefix:   "employees/",
		Includes: []string{session.TokenPrefix + "not-a-date"},
	})
	require.Error(t, err)
}
