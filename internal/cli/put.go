package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/tvd/internal/schema"
	"github.com/corvid-labs/tvd/internal/store"
)

// PutResult is the data payload of a successful put.
type PutResult struct {
	Key      string `json:"key"`
	Revision int    `json:"revision"`
	ETag     string `json:"etag"`
	Pending  bool   `json:"pending,omitempty"`
}

// NewPutCommand creates the put command.
func NewPutCommand(rootOpts *RootOptions) *cobra.Command {
	var effective string
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "put <key> <payload|->",
		Short: "Store a document revision",
		Long: `Store a document as a new revision of its chain.

The payload is a JSON literal, or "-" to read it from stdin. With
--effective the revision is effective from that date. Without it, a
document that already has a revision chain is superseded effective from
now; a new document is stored untracked. A put at the head's exact
effective date amends it in place; an earlier date is rejected.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPut(rootOpts, cmd, args[0], args[1], effective, schemaPath)
		},
	}

	cmd.Flags().StringVar(&effective, "effective", "", "effective date (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "CUE schema file to validate the payload against")
	return cmd
}

func runPut(opts *RootOptions, cmd *cobra.Command, key, payloadArg, effective, schemaPath string) error {
	formatter := newFormatter(opts, cmd)

	payload, err := readPayload(payloadArg, cmd.InOrStdin())
	if err != nil {
		_ = formatter.Error("BAD_PAYLOAD", err.Error())
		return NewExitError(ExitCommandError, err.Error())
	}

	if schemaPath != "" {
		validator, err := schema.Load(schemaPath)
		if err != nil {
			_ = formatter.Error("BAD_SCHEMA", err.Error())
			return NewExitError(ExitCommandError, err.Error())
		}
		if err := validator.Validate(payload); err != nil {
			_ = formatter.Error("SCHEMA_VIOLATION", err.Error())
			return NewExitError(ExitFailure, err.Error())
		}
		formatter.VerboseLog("payload validated against %s", schemaPath)
	}

	st, eng, cleanup, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	result := PutResult{Key: key}

	if effective != "" {
		at, err := parseDate(effective)
		if err != nil {
			_ = formatter.Error("BAD_DATE", err.Error())
			return NewExitError(ExitCommandError, err.Error())
		}
		head, err := eng.Write(ctx, key, payload, at, false)
		if err != nil {
			return reportError(formatter, err)
		}
		result.Revision = head.Number
		result.ETag = head.ETag
		result.Pending = head.Pending
	} else {
		etag, err := st.Put(ctx, &store.Document{
			Key:      key,
			Payload:  payload,
			Metadata: map[string]string{},
		})
		if err != nil {
			return reportError(formatter, err)
		}
		head, err := st.HeadRevision(ctx, key)
		if err != nil {
			return reportError(formatter, err)
		}
		result.ETag = etag
		if head != nil {
			result.Revision = head.Number
			result.Pending = head.Pending
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	if result.Revision > 0 {
		fmt.Fprintf(formatter.Writer, "stored %s revision %d\n", result.Key, result.Revision)
	} else {
		fmt.Fprintf(formatter.Writer, "stored %s\n", result.Key)
	}
	return nil
}
