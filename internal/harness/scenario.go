package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a sequence of temporal
// writes against a fresh store, followed by assertions on the resulting
// revision chains and visible state.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Clock is the deterministic assertion-clock start, RFC3339. Every
	// clock read during the run is derived from it, so reruns produce
	// identical asserted intervals.
	Clock string `yaml:"clock"`

	// Steps are the writes, executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state after all steps ran.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is a single write: exactly one of Put or Delete names the target
// document.
type Step struct {
	// Put is the document key to store. Mutually exclusive with Delete.
	Put string `yaml:"put,omitempty"`

	// Delete is the document key to tombstone. Mutually exclusive with Put.
	Delete string `yaml:"delete,omitempty"`

	// Effective is the requested effective date, RFC3339. Empty means
	// effective from the assertion instant.
	Effective string `yaml:"effective,omitempty"`

	// Payload is the document body for a put.
	Payload map[string]any `yaml:"payload,omitempty"`

	// ExpectError names the error class the step must fail with:
	// "ordering_violation" or "conflict". Empty means the step must
	// succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates revision chains or visible state.
type Assertion struct {
	// Type selects the check:
	//   - "revision_count": document's chain has exactly Count revisions
	//   - "current_absent": document is invisible to a current read
	//   - "current_count": Count documents under Prefix are effective at At
	//   - "resolve": resolving Doc at At yields Payload (or nothing when
	//     Absent)
	Type string `yaml:"type"`

	// Doc is the document key (revision_count, current_absent, resolve).
	Doc string `yaml:"doc,omitempty"`

	// Prefix is the key prefix (current_count).
	Prefix string `yaml:"prefix,omitempty"`

	// At is the effective date for the check, RFC3339. For resolve, empty
	// means a current read; for current_count, empty means the clock's
	// final instant.
	At string `yaml:"at,omitempty"`

	// Count is the expected cardinality (revision_count, current_count).
	Count int `yaml:"count,omitempty"`

	// Payload is the expected document body, subset-matched on top-level
	// fields (resolve).
	Payload map[string]any `yaml:"payload,omitempty"`

	// Absent expects the resolve to report nothing visible.
	Absent bool `yaml:"absent,omitempty"`
}

// Assertion type constants.
const (
	AssertRevisionCount = "revision_count"
	AssertCurrentAbsent = "current_absent"
	AssertCurrentCount  = "current_count"
	AssertResolve       = "resolve"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, which catches typos like "assertion:" for "assertions:".
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and dates parse.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Clock == "" {
		return fmt.Errorf("clock is required")
	}
	if _, err := time.Parse(time.RFC3339, s.Clock); err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *Step) error {
	switch {
	case step.Put == "" && step.Delete == "":
		return fmt.Errorf("steps[%d]: put or delete is required", index)
	case step.Put != "" && step.Delete != "":
		return fmt.Errorf("steps[%d]: put and delete are mutually exclusive", index)
	case step.Put != "" && step.Payload == nil:
		return fmt.Errorf("steps[%d]: payload is required for put", index)
	case step.Delete != "" && step.Payload != nil:
		return fmt.Errorf("steps[%d]: payload is not allowed for delete", index)
	case step.Delete != "" && step.Effective == "":
		return fmt.Errorf("steps[%d]: effective is required for delete", index)
	}
	if step.Effective != "" {
		if _, err := time.Parse(time.RFC3339, step.Effective); err != nil {
			return fmt.Errorf("steps[%d].effective: %w", index, err)
		}
	}
	switch step.ExpectError {
	case "", "ordering_violation", "conflict":
	default:
		return fmt.Errorf("steps[%d]: unknown expect_error %q", index, step.ExpectError)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.At != "" {
		if _, err := time.Parse(time.RFC3339, a.At); err != nil {
			return fmt.Errorf("assertions[%d].at: %w", index, err)
		}
	}

	switch a.Type {
	case AssertRevisionCount:
		if a.Doc == "" {
			return fmt.Errorf("assertions[%d]: doc is required for revision_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertCurrentAbsent:
		if a.Doc == "" {
			return fmt.Errorf("assertions[%d]: doc is required for current_absent", index)
		}
	case AssertCurrentCount:
		if a.Prefix == "" {
			return fmt.Errorf("assertions[%d]: prefix is required for current_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertResolve:
		if a.Doc == "" {
			return fmt.Errorf("assertions[%d]: doc is required for resolve", index)
		}
		if a.Absent && a.Payload != nil {
			return fmt.Errorf("assertions[%d]: absent and payload are mutually exclusive", index)
		}
		if !a.Absent && a.Payload == nil {
			return fmt.Errorf("assertions[%d]: payload or absent is required for resolve", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
