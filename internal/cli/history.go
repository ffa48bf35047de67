package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/corvid-labs/tvd/internal/temporal"
)

// HistoryEntry is one revision in the history listing.
type HistoryEntry struct {
	Revision       int             `json:"revision"`
	EffectiveStart string          `json:"effective_start"`
	EffectiveUntil string          `json:"effective_until"`
	AssertedStart  string          `json:"asserted_start"`
	AssertedUntil  string          `json:"asserted_until"`
	Deleted        bool            `json:"deleted,omitempty"`
	Pending        bool            `json:"pending,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var skip, take int

	cmd := &cobra.Command{
		Use:   "history <key>",
		Short: "List a document's revision chain",
		Long: `List every revision of a document in chain order, tombstones and
pending revisions included. History is append-only audit data and is
never filtered by effective date.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, cmd, args[0], skip, take)
		},
	}

	cmd.Flags().IntVar(&skip, "skip", 0, "number of revisions to skip")
	cmd.Flags().IntVar(&take, "take", 0, "maximum revisions to return (0 = all)")
	return cmd
}

func runHistory(opts *RootOptions, cmd *cobra.Command, key string, skip, take int) error {
	formatter := newFormatter(opts, cmd)

	_, eng, cleanup, err := openEngine(opts)
	if err != nil {
		return err
	}
	defer cleanup()

	revs, err := eng.Revisions(cmd.Context(), key, skip, take)
	if err != nil {
		return reportError(formatter, err)
	}

	entries := make([]HistoryEntry, 0, len(revs))
	for _, rev := range revs {
		entries = append(entries, HistoryEntry{
			Revision:       rev.Number,
			EffectiveStart: formatBound(rev.EffectiveStart),
			EffectiveUntil: formatBound(rev.EffectiveUntil),
			AssertedStart:  formatBound(rev.AssertedStart),
			AssertedUntil:  formatBound(rev.AssertedUntil),
			Deleted:        rev.Deleted,
			Pending:        rev.Pending,
			Payload:        rev.Payload,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintf(formatter.Writer, "no revisions for %s\n", key)
		return nil
	}
	for _, e := range entries {
		marker := ""
		if e.Deleted {
			marker = " [deleted]"
		}
		if e.Pending {
			marker += " [pending]"
		}
		fmt.Fprintf(formatter.Writer, "#%d  effective [%s, %s)  asserted [%s, %s)%s\n",
			e.Revision, e.EffectiveStart, e.EffectiveUntil,
			e.AssertedStart, e.AssertedUntil, marker)
	}
	return nil
}

func formatBound(t time.Time) string {
	if temporal.IsInfinity(t) {
		return "infinity"
	}
	return t.UTC().Format(temporal.TimeFormat)
}
