// Package store implements the host document store the revision engine
// plugs into: a single-node SQLite database holding root documents and
// their revision chains.
//
// The store itself knows nothing about revision-chain invariants. It
// provides exactly the collaborator contracts the engine requires:
//
//   - a case-sensitive string-keyed metadata bag on every document,
//     serialized canonically (sorted keys, NFC strings);
//   - an atomic multi-document commit primitive (Batch/Commit, one SQLite
//     transaction);
//   - an optimistic-concurrency token per record (UUIDv7 etags) with an
//     expected-head check that fails the whole transaction on mismatch;
//   - pre-write and post-read interceptor extension points the engine
//     registers into, so temporal behavior stays out of the storage layer.
//
// Readers never observe a partially committed batch: SQLite's transaction
// boundary is the atomic commit boundary.
package store
