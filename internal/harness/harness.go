package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/corvid-labs/tvd/internal/engine"
	"github.com/corvid-labs/tvd/internal/index"
	"github.com/corvid-labs/tvd/internal/store"
	"github.com/corvid-labs/tvd/internal/temporal"
)

// Run executes a scenario against a fresh in-memory store and returns the
// result. Execution errors (bad storage, unparseable payloads) are returned
// as error; step and assertion failures land in Result.Errors with Pass
// false.
//
// The assertion clock is deterministic: reads start at the scenario's clock
// value and advance one second per read, so reruns produce byte-identical
// chains.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open scenario store: %w", err)
	}
	defer st.Close()

	start, err := time.Parse(time.RFC3339, scenario.Clock)
	if err != nil {
		return nil, fmt.Errorf("parse scenario clock: %w", err)
	}
	ticks := 0
	source := func() time.Time {
		t := start.Add(time.Duration(ticks) * time.Second)
		ticks++
		return t
	}

	eng := engine.New(st,
		engine.WithClock(engine.NewClockWithSource(source)),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	st.RegisterWriteInterceptor(eng)
	st.RegisterReadInterceptor(eng)

	ctx := context.Background()
	result := NewResult()

	var docs []string
	seen := map[string]bool{}
	touch := func(key string) {
		if !seen[key] {
			seen[key] = true
			docs = append(docs, key)
		}
	}

	for i, step := range scenario.Steps {
		if err := runStep(ctx, eng, st, i, &step, result); err != nil {
			return nil, err
		}
		if step.Put != "" {
			touch(step.Put)
		} else {
			touch(step.Delete)
		}
	}

	// The instant one past the last clock read, for undated current_count
	// assertions.
	now := start.Add(time.Duration(ticks) * time.Second)
	checkAssertions(ctx, result, eng, index.New(st), scenario, now)

	if err := snapshotChains(ctx, result, eng, docs); err != nil {
		return nil, err
	}
	return result, nil
}

// runStep applies one write. A step that fails with its declared error
// class passes; any other failure is recorded against the result.
func runStep(ctx context.Context, eng *engine.Engine, st *store.Store, n int, step *Step, result *Result) error {
	var err error
	switch {
	case step.Delete != "":
		effective, perr := time.Parse(time.RFC3339, step.Effective)
		if perr != nil {
			return fmt.Errorf("steps[%d].effective: %w", n, perr)
		}
		_, err = eng.Delete(ctx, step.Delete, effective)

	case step.Effective != "":
		effective, perr := time.Parse(time.RFC3339, step.Effective)
		if perr != nil {
			return fmt.Errorf("steps[%d].effective: %w", n, perr)
		}
		payload, perr := json.Marshal(step.Payload)
		if perr != nil {
			return fmt.Errorf("steps[%d].payload: %w", n, perr)
		}
		_, err = eng.Write(ctx, step.Put, payload, effective, false)

	default:
		// An undated put goes through the store's generic path, effective
		// from the assertion instant.
		payload, perr := json.Marshal(step.Payload)
		if perr != nil {
			return fmt.Errorf("steps[%d].payload: %w", n, perr)
		}
		_, err = st.Put(ctx, &store.Document{
			Key:      step.Put,
			Payload:  payload,
			Metadata: map[string]string{},
		})
	}

	switch step.ExpectError {
	case "":
		if err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: %v", n, err))
		}
	case "ordering_violation":
		if !engine.IsOrderingViolation(err) {
			result.AddError(fmt.Sprintf("steps[%d]: want ordering violation, got %v", n, err))
		}
	case "conflict":
		if !engine.IsConflict(err) {
			result.AddError(fmt.Sprintf("steps[%d]: want conflict, got %v", n, err))
		}
	}
	return nil
}

// snapshotChains captures the final chain of every touched document.
func snapshotChains(ctx context.Context, result *Result, eng *engine.Engine, docs []string) error {
	for _, doc := range docs {
		revs, err := eng.Revisions(ctx, doc, 0, 0)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", doc, err)
		}
		chain := ChainSnapshot{Doc: doc, Revisions: []RevisionSnapshot{}}
		for _, rev := range revs {
			payload, err := store.CanonicalPayload(rev.Payload)
			if err != nil {
				return fmt.Errorf("snapshot %s#%d: %w", doc, rev.Number, err)
			}
			chain.Revisions = append(chain.Revisions, RevisionSnapshot{
				Number:         rev.Number,
				Status:         rev.Status.String(),
				EffectiveStart: formatBound(rev.EffectiveStart),
				EffectiveUntil: formatBound(rev.EffectiveUntil),
				AssertedStart:  formatBound(rev.AssertedStart),
				AssertedUntil:  formatBound(rev.AssertedUntil),
				Deleted:        rev.Deleted,
				Pending:        rev.Pending,
				Payload:        payload,
			})
		}
		result.Chains = append(result.Chains, chain)
	}
	return nil
}

func formatBound(t time.Time) string {
	if temporal.IsInfinity(t) {
		return "infinity"
	}
	return t.UTC().Format(temporal.TimeFormat)
}
