package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/nlcommand/command"
	"github.com/lexcodex/nlcommand/server"
)

func newDomainsCmd() *cobra.Command {
	var showPrompt bool
	var contextFile string
	cmd := &cobra.Command{
		Use:   "domains [domain]",
		Short: "List domains or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, schema := range command.Schemas() {
					fmt.Fprintf(out, "%s · %s\n", schema.Domain, schema.Description)
					fmt.Fprintf(out, "  actions: %s\n", strings.Join(schema.Actions, ", "))
				}
				return nil
			}
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			if showPrompt {
				domainCtx, err := readContextFile(contextFile)
				if err != nil {
					return err
				}
				fmt.Fprint(out, schema.SystemPrompt(domainCtx))
				return nil
			}
			data, err := json.MarshalIndent(server.Describe(schema), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPrompt, "prompt", false, "Print the system prompt sent to the model")
	cmd.Flags().StringVar(&contextFile, "context", "", "Domain context to render into the prompt")
	return cmd
}
