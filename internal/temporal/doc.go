// Package temporal defines the bi-temporal domain vocabulary: the revision
// status enum, the persisted metadata key strings, the infinity sentinel for
// open-ended intervals, and a typed accessor over a document's metadata bag.
//
// The metadata bag is a case-sensitive string-keyed map attached to every
// document by the host store. All temporal state a revision carries is
// encoded in this bag; the accessor is the only component that reads or
// writes the temporal keys directly.
//
// Default-omission: setting a field to its documented default removes the
// key from the bag instead of writing it. This keeps bags compact and makes
// "unset" observably identical to "default" - a bag round-tripped through
// the accessor never grows keys for default values.
package temporal
