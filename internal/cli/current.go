package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/tvd/internal/index"
)

// CurrentResult is the data payload of the current command.
type CurrentResult struct {
	Prefix string   `json:"prefix"`
	AsOf   string   `json:"as_of"`
	Count  int      `json:"count"`
	Keys   []string `json:"keys"`
}

// NewCurrentCommand creates the current command.
func NewCurrentCommand(rootOpts *RootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "current [prefix]",
		Short: "Count and list currently effective documents",
		Long: `Count the documents under a key prefix whose head revision is
effective and not deleted at the as-of instant (default: now). Pending
future-dated documents start counting when their effective date arrives.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return runCurrent(rootOpts, cmd, prefix, at)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "as-of effective date (RFC3339 or YYYY-MM-DD)")
	return cmd
}

func runCurrent(opts *RootOptions, cmd *cobra.Command, prefix, at string) error {
	formatter := newFormatter(opts, cmd)

	st, _, cleanup, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	asOf := time.Now().UTC()
	if at != "" {
		asOf, err = parseDate(at)
		if err != nil {
			_ = formatter.Error("BAD_DATE", err.Error())
			return NewExitError(ExitCommandError, err.Error())
		}
	}

	ix := index.New(st)
	keys, err := ix.CurrentKeys(cmd.Context(), prefix, asOf)
	if err != nil {
		return reportError(formatter, err)
	}

	result := CurrentResult{
		Prefix: prefix,
		AsOf:   asOf.Format(time.RFC3339),
		Count:  len(keys),
		Keys:   keys,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%d current document(s)\n", result.Count)
	for _, key := range keys {
		fmt.Fprintf(formatter.Writer, "  %s\n", key)
	}
	return nil
}
