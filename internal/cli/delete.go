package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// DeleteResult is the data payload of a successful delete.
type DeleteResult struct {
	Key      string `json:"key"`
	Revision int    `json:"revision"`
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var effective string

	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Tombstone a document",
		Long: `Record a deletion as a tombstone revision effective from the given
date (default: now).

The history before the tombstone stays readable with get --effective; a
later put supersedes the tombstone and the document reappears.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, cmd, args[0], effective)
		},
	}

	cmd.Flags().StringVar(&effective, "effective", "", "effective date (RFC3339 or YYYY-MM-DD)")
	return cmd
}

func runDelete(opts *RootOptions, cmd *cobra.Command, key, effective string) error {
	formatter := newFormatter(opts, cmd)

	_, eng, cleanup, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	at := time.Now().UTC()
	if effective != "" {
		at, err = parseDate(effective)
		if err != nil {
			_ = formatter.Error("BAD_DATE", err.Error())
			return NewExitError(ExitCommandError, err.Error())
		}
	}

	rev, err := eng.Delete(cmd.Context(), key, at)
	if err != nil {
		return reportError(formatter, err)
	}

	if opts.Format == "json" {
		return formatter.Success(DeleteResult{Key: key, Revision: rev.Number})
	}
	fmt.Fprintf(formatter.Writer, "deleted %s (revision %d)\n", key, rev.Number)
	return nil
}
