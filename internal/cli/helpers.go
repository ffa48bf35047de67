package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/tvd/internal/engine"
	"github.com/corvid-labs/tvd/internal/store"
)

// openEngine opens the database and wires the revision engine into its
// read/write pipeline. The returned cleanup closes the store.
func openEngine(opts *RootOptions) (*store.Store, *engine.Engine, func(), error) {
	st, err := store.Open(opts.DB)
	if err != nil {
		return nil, nil, nil, &ExitError{Code: ExitCommandError, Message: "open database", Err: err}
	}
	eng := engine.New(st)
	st.RegisterWriteInterceptor(eng)
	st.RegisterReadInterceptor(eng)
	return st, eng, func() { st.Close() }, nil
}

// newFormatter builds the per-command output formatter, sending diagnostic
// output to stderr so JSON on stdout stays parseable.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// parseDate accepts RFC3339 timestamps and bare dates ("2012-01-01",
// midnight UTC).
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse %q as RFC3339 or YYYY-MM-DD", raw)
	}
	return t.UTC(), nil
}

// readPayload reads the document body: a JSON literal argument, or stdin
// when the argument is "-".
func readPayload(arg string, stdin io.Reader) (json.RawMessage, error) {
	raw := []byte(arg)
	if arg == "-" {
		var err error
		raw, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read payload from stdin: %w", err)
		}
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

// reportError prints err through the formatter and converts it to an
// ExitError. Rejections the engine can explain keep their code; everything
// else is an internal failure.
func reportError(f *OutputFormatter, err error) error {
	var ee *engine.Error
	if errors.As(err, &ee) {
		_ = f.Error(string(ee.Code), ee.Message)
		return NewExitError(ExitFailure, ee.Error())
	}
	_ = f.Error("INTERNAL", err.Error())
	return NewExitError(ExitCommandError, err.Error())
}
