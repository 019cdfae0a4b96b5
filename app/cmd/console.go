package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lexcodex/nlcommand/command"
	"github.com/lexcodex/nlcommand/executor"
	"github.com/lexcodex/nlcommand/internal/console"
)

func newConsoleCmd() *cobra.Command {
	var dbPath string
	var contextFile string
	var rows, cols int
	cmd := &cobra.Command{
		Use:   "console [domain]",
		Short: "Open the interactive console",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := command.DomainDiagram
			if len(args) == 1 {
				schema, err := lookupSchema(args[0])
				if err != nil {
					return err
				}
				domain = schema.Domain
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

			sqlConsole := executor.NewSQLConsole(dbPath, logger)
			defer sqlConsole.Close()

			return console.Run(cmd.Context(), console.Options{
				Invoker:   p.Invoker,
				Telemetry: p.Telemetry,
				Domain:    domain,
				Context:   domainCtx,
				SQL:       sqlConsole,
				Grid:      executor.Grid{Rows: rows, Cols: cols},
			})
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite file opened by connect commands without a path")
	cmd.Flags().StringVar(&contextFile, "context", "", "JSON or YAML file with domain context")
	cmd.Flags().IntVar(&rows, "rows", 10, "Rows in the table preview grid")
	cmd.Flags().IntVar(&cols, "cols", 10, "Columns in the table preview grid")
	return cmd
}
