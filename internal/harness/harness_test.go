package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Every scenario under testdata/scenarios must load and pass.
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			require.True(t, result.Pass, "scenario failed: %v", result.Errors)
		})
	}
}

func TestRun_DeterministicChains(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "single-delete.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	// Etags aside, reruns must produce identical chains: the harness clock
	// is deterministic.
	require.Equal(t, first.Chains, second.Chains)
}

func TestRun_StepFailureIsRecorded(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected-rejection",
		Description: "a backdated write without expect_error fails the scenario",
		Clock:       "2012-06-01T00:00:00Z",
		Steps: []Step{
			{Put: "docs/1", Effective: "2012-02-01T00:00:00Z", Payload: map[string]any{"v": 1}},
			{Put: "docs/1", Effective: "2012-01-01T00:00:00Z", Payload: map[string]any{"v": 2}},
		},
		Assertions: []Assertion{
			{Type: AssertRevisionCount, Doc: "docs/1", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "steps[1]")
}

func TestRun_FailedAssertionIsRecorded(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong-count",
		Description: "an assertion that does not hold fails the scenario",
		Clock:       "2012-06-01T00:00:00Z",
		Steps: []Step{
			{Put: "docs/1", Effective: "2012-01-01T00:00:00Z", Payload: map[string]any{"v": 1}},
		},
		Assertions: []Assertion{
			{Type: AssertRevisionCount, Doc: "docs/1", Count: 5},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.False(t, result.Pass)
	require.Contains(t, result.Errors[0], "want 5")
}

func TestRun_UndatedPutIsEffectiveFromClock(t *testing.T) {
	scenario := &Scenario{
		Name:        "undated-put",
		Description: "a put without an effective date starts its interval at the assertion instant",
		Clock:       "2012-06-01T00:00:00Z",
		Steps: []Step{
			{Put: "docs/1", Payload: map[string]any{"v": 1}},
		},
		Assertions: []Assertion{
			{Type: AssertRevisionCount, Doc: "docs/1", Count: 1},
			{Type: AssertCurrentCount, Prefix: "docs/", Count: 1},
			{Type: AssertResolve, Doc: "docs/1", At: "2012-05-01T00:00:00Z", Absent: true},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, "scenario failed: %v", result.Errors)

	require.Len(t, result.Chains, 1)
	require.Equal(t, "2012-06-01T00:00:00Z", result.Chains[0].Revisions[0].EffectiveStart)
}
