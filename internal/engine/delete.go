package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/corvid-labs/tvd/internal/store"
)

// TombstonePayload is the marker payload a tombstone revision carries. A
// tombstone has no live payload; the marker keeps the revision row
// well-formed JSON.
var TombstonePayload = json.RawMessage(`{}`)

// Delete supersedes the chain head with a tombstone revision effective
// from the given date. Deletion is not a terminal state: a later Write
// supersedes the tombstone under the same rules and the document reappears.
//
// Returns the tombstone revision.
func (e *Engine) Delete(ctx context.Context, docID string, effective time.Time) (*store.Revision, error) {
	return e.Write(ctx, docID, TombstonePayload, effective, true)
}
