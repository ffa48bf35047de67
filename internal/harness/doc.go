// Package harness runs YAML conformance scenarios against the revision
// engine.
//
// A scenario describes a sequence of temporal puts and deletes, the
// deterministic clock they are asserted under, and assertions on the
// resulting chains: revision counts, current visibility, effective-dated
// resolution, and current-set cardinality. Golden files capture the full
// revision chains so any drift in interval closing, numbering, or flag
// computation shows up as a readable diff.
//
// Scenarios live in testdata/scenarios, golden files in testdata/golden.
package harness
