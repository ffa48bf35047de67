package harness

import "encoding/json"

// RevisionSnapshot is one revision of a chain, flattened for golden
// comparison. Interval bounds are RFC3339Nano strings, with "infinity" for
// open bounds, so the files read naturally in review.
type RevisionSnapshot struct {
	Number         int             `json:"number"`
	Status         string          `json:"status"`
	EffectiveStart string          `json:"effective_start"`
	EffectiveUntil string          `json:"effective_until"`
	AssertedStart  string          `json:"asserted_start"`
	AssertedUntil  string          `json:"asserted_until"`
	Deleted        bool            `json:"deleted,omitempty"`
	Pending        bool            `json:"pending,omitempty"`
	Payload        json.RawMessage `json:"payload"`
}

// ChainSnapshot is one document's full revision chain.
type ChainSnapshot struct {
	Doc       string             `json:"doc"`
	Revisions []RevisionSnapshot `json:"revisions"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success. True if every step and
	// assertion held.
	Pass bool `json:"pass"`

	// Errors contains step and assertion failure messages. Empty if Pass
	// is true.
	Errors []string `json:"errors,omitempty"`

	// Chains contains the final revision chain of every document the
	// scenario touched, in first-touch order. This is what golden files
	// compare.
	Chains []ChainSnapshot `json:"chains"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
		Chains: []ChainSnapshot{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
