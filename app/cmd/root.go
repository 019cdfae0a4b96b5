package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexcodex/nlcommand/framework"
	"github.com/lexcodex/nlcommand/internal/config"
)

var (
	cfgFile    string
	logLevel   string
	eventsFile string

	globalCfg = config.Default()
	logger    = zap.NewNop()
)

// Execute is the entry point for the CLI.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nlcommand",
		Short:         "Turn natural-language requests into validated commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
				if err := cfg.Normalize(); err != nil {
					return err
				}
			}
			log, err := framework.NewLogger(cfg.Logging)
			if err != nil {
				return err
			}
			globalCfg, logger = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "Path to the nlcommand config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	root.PersistentFlags().StringVar(&eventsFile, "events", "", "Append pipeline events as JSON lines to this file")

	root.AddCommand(
		newServeCmd(),
		newInterpretCmd(),
		newCheckCmd(),
		newDomainsCmd(),
		newHistoryCmd(),
		newConsoleCmd(),
		newConfigCmd(),
	)
	return root
}
