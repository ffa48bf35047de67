package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/corvid-labs/tvd/internal/engine"
	"github.com/corvid-labs/tvd/internal/index"
)

// checkAssertions runs every assertion of the scenario against the final
// state, recording failures on the result. now is the deterministic instant
// used when an assertion gives no explicit date.
func checkAssertions(ctx context.Context, result *Result, eng *engine.Engine, ix *index.Index, scenario *Scenario, now time.Time) {
	for i, a := range scenario.Assertions {
		var err error
		switch a.Type {
		case AssertRevisionCount:
			err = checkRevisionCount(ctx, eng, &a)
		case AssertCurrentAbsent:
			err = checkCurrentAbsent(ctx, eng, &a)
		case AssertCurrentCount:
			err = checkCurrentCount(ctx, ix, &a, now)
		case AssertResolve:
			err = checkResolve(ctx, eng, &a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
}

func checkRevisionCount(ctx context.Context, eng *engine.Engine, a *Assertion) error {
	revs, err := eng.Revisions(ctx, a.Doc, 0, 0)
	if err != nil {
		return err
	}
	if len(revs) != a.Count {
		return fmt.Errorf("%s has %d revisions, want %d", a.Doc, len(revs), a.Count)
	}
	return nil
}

func checkCurrentAbsent(ctx context.Context, eng *engine.Engine, a *Assertion) error {
	_, err := eng.Resolve(ctx, a.Doc, nil)
	switch {
	case err == nil:
		return fmt.Errorf("%s is still visible to a current read", a.Doc)
	case engine.IsNotFound(err):
		return nil
	default:
		return err
	}
}

func checkCurrentCount(ctx context.Context, ix *index.Index, a *Assertion, now time.Time) error {
	asOf := now
	if a.At != "" {
		t, err := time.Parse(time.RFC3339, a.At)
		if err != nil {
			return err
		}
		asOf = t
	}
	count, err := ix.CurrentCount(ctx, a.Prefix, asOf)
	if err != nil {
		return err
	}
	if count != a.Count {
		return fmt.Errorf("current count for %q is %d, want %d", a.Prefix, count, a.Count)
	}
	return nil
}

func checkResolve(ctx context.Context, eng *engine.Engine, a *Assertion) error {
	var at *time.Time
	if a.At != "" {
		t, err := time.Parse(time.RFC3339, a.At)
		if err != nil {
			return err
		}
		at = &t
	}

	doc, err := eng.Resolve(ctx, a.Doc, at)
	if a.Absent {
		switch {
		case err == nil:
			return fmt.Errorf("%s resolves at %s, want nothing visible", a.Doc, a.At)
		case engine.IsNotFound(err):
			return nil
		default:
			return err
		}
	}
	if err != nil {
		return fmt.Errorf("resolve %s: %w", a.Doc, err)
	}
	return matchPayload(doc.Payload, a.Payload)
}

// matchPayload subset-matches expected top-level fields against the
// resolved payload. Expected values from YAML are normalized through JSON
// so numeric types compare equal.
func matchPayload(payload json.RawMessage, expect map[string]any) error {
	var got map[string]any
	if err := json.Unmarshal(payload, &got); err != nil {
		return fmt.Errorf("resolved payload is not an object: %w", err)
	}

	normalized, err := json.Marshal(expect)
	if err != nil {
		return err
	}
	var want map[string]any
	if err := json.Unmarshal(normalized, &want); err != nil {
		return err
	}

	for field, wantVal := range want {
		gotVal, ok := got[field]
		if !ok {
			return fmt.Errorf("payload field %q is missing", field)
		}
		if !reflect.DeepEqual(gotVal, wantVal) {
			return fmt.Errorf("payload field %q = %v, want %v", field, gotVal, wantVal)
		}
	}
	return nil
}
