package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lexcodex/nlcommand/persistence"
)

func newHistoryCmd() *cobra.Command {
	var domain string
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent interpretations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !globalCfg.History.Enabled {
				return fmt.Errorf("history is disabled (history.enabled=false)")
			}
			if domain != "" {
				schema, err := lookupSchema(domain)
				if err != nil {
					return err
				}
				domain = string(schema.Domain)
			}
			if limit <= 0 {
				limit = globalCfg.History.Limit
			}
			store, err := persistence.NewSQLiteHistoryStore(globalCfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			entries, err := store.Recent(cmd.Context(), domain, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No interpretations recorded.")
				return nil
			}
			return writeHistory(out, entries)
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "Only show this domain")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of entries (defaults to history.limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func writeHistory(out io.Writer, entries []persistence.Entry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tDOMAIN\tINPUT\tRESULT")
	for _, e := range entries {
		result := e.Command
		if !e.Accepted() {
			result = e.ErrorKind + ": " + e.ErrorMessage
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.Domain, clipText(e.Input, 40), clipText(result, 80))
	}
	return tw.Flush()
}

func clipText(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
