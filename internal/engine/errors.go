package engine

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a failure the engine reports to callers with enough
// structure to act on: retry (conflicts), fix the request (ordering
// violations), or treat as absence (not found).
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// DocumentID identifies the affected logical document.
	DocumentID string

	// Revision identifies the head revision involved, when known.
	Revision int
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeConflict indicates a concurrent writer moved the document
	// head; the engine already exhausted its bounded retries.
	ErrCodeConflict ErrorCode = "WRITE_CONFLICT"

	// ErrCodeOrderingViolation indicates a write whose effective date
	// precedes the current head's effectiveStart. Effective time must be
	// non-decreasing per document; the write is rejected, never reordered.
	ErrCodeOrderingViolation ErrorCode = "ORDERING_VIOLATION"

	// ErrCodeNotFound indicates the document identity has no record at all.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeNotVisible indicates the identity exists but nothing is
	// visible at the requested instant: the effective date precedes the
	// first revision, or the resolved revision is a tombstone.
	ErrCodeNotVisible ErrorCode = "NOT_VISIBLE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.DocumentID != "" && e.Revision > 0 {
		return fmt.Sprintf("%s: %s (doc=%s, revision=%d)", e.Code, e.Message, e.DocumentID, e.Revision)
	}
	if e.DocumentID != "" {
		return fmt.Sprintf("%s: %s (doc=%s)", e.Code, e.Message, e.DocumentID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConflict returns true if the error is a write-conflict error.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var ee *Error
	return errors.As(err, &ee) && ee.Code == ErrCodeConflict
}

// IsOrderingViolation returns true if the error rejects an out-of-order
// effective date.
func IsOrderingViolation(err error) bool {
	var ee *Error
	return errors.As(err, &ee) && ee.Code == ErrCodeOrderingViolation
}

// IsNotFound returns true when the error reports "not found" to the
// caller - either an unknown document identity or one with nothing visible
// at the requested instant. The two cases stay distinguishable by Code.
func IsNotFound(err error) bool {
	var ee *Error
	return errors.As(err, &ee) && (ee.Code == ErrCodeNotFound || ee.Code == ErrCodeNotVisible)
}

// NewConflictError creates an Error for an exhausted conflict retry.
func NewConflictError(docID string, revision int) *Error {
	return &Error{
		Code:       ErrCodeConflict,
		Message:    "concurrent modification of document head",
		DocumentID: docID,
		Revision:   revision,
	}
}

// NewOrderingViolationError creates an Error for a backdated write.
func NewOrderingViolationError(docID string, effective, headStart time.Time) *Error {
	return &Error{
		Code:       ErrCodeOrderingViolation,
		Message:    fmt.Sprintf("effective date %s precedes current head's effective start %s", effective.Format(time.RFC3339Nano), headStart.Format(time.RFC3339Nano)),
		DocumentID: docID,
	}
}

// NewNotFoundError creates an Error for an unknown document identity.
func NewNotFoundError(docID string) *Error {
	return &Error{
		Code:       ErrCodeNotFound,
		Message:    "no such document",
		DocumentID: docID,
	}
}

// NewNotVisibleError creates an Error for an identity with nothing visible
// at the requested instant.
func NewNotVisibleError(docID, reason string) *Error {
	return &Error{
		Code:       ErrCodeNotVisible,
		Message:    reason,
		DocumentID: docID,
	}
}
