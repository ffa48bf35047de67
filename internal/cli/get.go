package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// GetResult is the data payload of a successful get.
type GetResult struct {
	Key      string            `json:"key"`
	Payload  json.RawMessage   `json:"payload"`
	Metadata map[string]string `json:"metadata,omitempty"`
	ETag     string            `json:"etag"`
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	var effective string

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a document, optionally as of an effective date",
		Long: `Read the document visible at a key.

Without --effective this is the current state. With --effective the read
resolves to the revision whose effective interval contains that date, so
historical and future-dated states are addressable without knowing
revision numbers.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, cmd, args[0], effective)
		},
	}

	cmd.Flags().StringVar(&effective, "effective", "", "effective date (RFC3339 or YYYY-MM-DD)")
	return cmd
}

func runGet(opts *RootOptions, cmd *cobra.Command, key, effective string) error {
	formatter := newFormatter(opts, cmd)

	_, eng, cleanup, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	var at *time.Time
	if effective != "" {
		t, err := parseDate(effective)
		if err != nil {
			_ = formatter.Error("BAD_DATE", err.Error())
			return NewExitError(ExitCommandError, err.Error())
		}
		at = &t
	}

	doc, err := eng.Resolve(cmd.Context(), key, at)
	if err != nil {
		return reportError(formatter, err)
	}

	if opts.Format == "json" {
		return formatter.Success(GetResult{
			Key:      doc.Key,
			Payload:  doc.Payload,
			Metadata: doc.Metadata,
			ETag:     doc.ETag,
		})
	}

	fmt.Fprintf(formatter.Writer, "%s\n", doc.Payload)
	if opts.Verbose {
		for k, v := range doc.Metadata {
			formatter.VerboseLog("%s: %s", k, v)
		}
	}
	return nil
}
