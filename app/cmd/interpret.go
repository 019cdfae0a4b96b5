package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/nlcommand/command"
)

func newInterpretCmd() *cobra.Command {
	var contextFile string
	cmd := &cobra.Command{
		Use:   "interpret <domain> <request...>",
		Short: "Interpret one request with the configured model",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			domainCtx, err := readContextFile(contextFile)
			if err != nil {
				return err
			}
			p, err := openPipeline(cmd.Context(), globalCfg, logger, true)
			if err != nil {
				return err
			}
			defer p.Close()

			result, err := p.Interpreter(schema).Interpret(cmd.Context(), command.Request{
				UserInput: strings.Join(args[1:], " "),
				Context:   domainCtx,
			})
			if err != nil {
				return describeFailure(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&contextFile, "context", "", "JSON or YAML file with domain context")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <domain> [file|-]",
		Short: "Validate and normalize a command without calling a model",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			raw, err := readInput(path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			result, err := schema.Process(raw)
			if err != nil {
				return describeFailure(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.String())
			return nil
		},
	}
}

// describeFailure prefixes pipeline errors with their kind and, for decode
// failures, the text that could not be parsed.
func describeFailure(err error) error {
	kind := command.KindOf(err)
	if kind == command.KindUnknown {
		return err
	}
	var decodeErr *command.DecodeError
	if errors.As(err, &decodeErr) && decodeErr.Raw != "" {
		return fmt.Errorf("%s: %w\nraw output: %s", kind, err, decodeErr.Raw)
	}
	return fmt.Errorf("%s: %w", kind, err)
}
