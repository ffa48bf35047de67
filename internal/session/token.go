package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/corvid-labs/tvd/internal/temporal"
)

// TokenPrefix marks an include entry that smuggles a requested effective
// date into a bulk query. Index-backed queries on some client stacks have
// no per-call header channel; this token is the wire-compatible fallback.
// New callers should attach the date with WithEffective instead.
const TokenPrefix = "__TemporalEffective__="

// EncodeToken formats t as an effective-date include token.
func EncodeToken(t time.Time) string {
	return TokenPrefix + t.UTC().Format(temporal.TimeFormat)
}

// StripToken removes any effective-date token from includes and returns the
// remaining includes plus the decoded date. The token must be stripped
// before the query executes - it is a signal, not an include path.
func StripToken(includes []string) (rest []string, effective *time.Time, err error) {
	rest = make([]string, 0, len(includes))
	for _, inc := range includes {
		raw, ok := strings.CutPrefix(inc, TokenPrefix)
		if !ok {
			rest = append(rest, inc)
			continue
		}
		t, perr := time.Parse(temporal.TimeFormat, raw)
		if perr != nil {
			return nil, nil, fmt.Errorf("malformed effective-date token %q: %w", inc, perr)
		}
		t = t.UTC()
		effective = &t
	}
	return rest, effective, nil
}
