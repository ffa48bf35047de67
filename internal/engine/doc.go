// Package engine implements the bi-temporal revision engine.
//
// Every mutation of a logical document is recorded as an immutable revision
// tagged with two independent time axes: effective time (when the fact is
// true in the modeled world) and asserted time (when the system recorded
// it). The engine decides, on each write, whether to amend or supersede the
// current head revision, assigns dense revision numbers, closes the prior
// head's intervals, and resolves as-of reads to a specific revision.
//
// ARCHITECTURE:
//
// Synchronous per-request evaluation:
// The engine runs inside the caller's request, with no background
// goroutines. Writes to one document are serialized through the store's
// expected-head check - the close-head-then-insert sequence commits as one
// transaction or not at all - while writers on different documents proceed
// independently. Reads never block writers.
//
// Write flow:
//  1. Load the open head revision (assertedUntil = infinity), if any.
//  2. First write creates revision #1. A write at the head's exact
//     effectiveStart amends the head in place. A later effective date
//     closes the head and inserts revision head+1. An earlier effective
//     date is rejected as an ordering violation.
//  3. The planned batch carries an expected-head assertion; a concurrent
//     writer that moved the head aborts the whole batch, and the engine
//     retries a bounded number of times before surfacing the conflict.
//
// INVARIANTS (hold after every committed write):
//   - Revisions of a document partition effective time with no gap or
//     overlap; only the last revision's effectiveUntil is infinity.
//   - Exactly one revision per document has assertedUntil = infinity.
//   - Revision numbers are dense from 1; the head carries the maximum.
//   - Closed revisions are never mutated again.
//
// Asserted timestamps come from a per-process strictly increasing clock, so
// two commits in immediate succession never compare equal on the asserted
// axis.
package engine
