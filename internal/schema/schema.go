// Package schema validates document payloads against a CUE definition
// before they enter a revision chain. Validation is opt-in: callers that
// pass no schema write unvalidated payloads, and historical revisions are
// never re-validated.
package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

// Validator checks payloads against one compiled CUE value.
type Validator struct {
	value cue.Value
}

// Compile builds a Validator from CUE source. When the source defines
// #Document, that definition is the payload schema; otherwise the whole
// value is.
func Compile(src []byte) (*Validator, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	if doc := value.LookupPath(cue.ParsePath("#Document")); doc.Exists() {
		value = doc
	}
	return &Validator{value: value}, nil
}

// Load reads and compiles a CUE schema file.
func Load(path string) (*Validator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	v, err := Compile(src)
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", path, err)
	}
	return v, nil
}

// Validate reports whether payload conforms to the schema. The payload is
// not mutated and defaults are not applied.
func (v *Validator) Validate(payload json.RawMessage) error {
	if err := cuejson.Validate(payload, v.value); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}
