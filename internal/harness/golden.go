package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// chainDump is the golden file shape: the scenario identity plus every
// touched document's final chain.
type chainDump struct {
	Scenario string          `json:"scenario"`
	Chains   []ChainSnapshot `json:"chains"`
}

// RunWithGolden executes a scenario and compares the resulting revision
// chains against testdata/golden/<name>.golden. The scenario's own
// assertions run first; a failing assertion fails the test before the
// golden comparison.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		for _, msg := range result.Errors {
			t.Error(msg)
		}
		return fmt.Errorf("scenario %s failed with %d error(s)", scenario.Name, len(result.Errors))
	}

	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already-obtained result's chains against the
// golden file for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	dump := chainDump{Scenario: scenarioName, Chains: result.Chains}
	raw, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chain dump: %w", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, append(raw, '\n'))
	return nil
}
