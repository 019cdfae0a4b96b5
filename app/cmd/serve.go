package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexcodex/nlcommand/server"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the interpreters over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = globalCfg.Server.Addr
			}
			p, err := openPipeline(cmd.Context(), globalCfg, logger, true)
			if err != nil {
				return err
			}
			defer p.Close()

			api := &server.APIServer{
				Invoker:         p.Invoker,
				Telemetry:       p.Telemetry,
				History:         p.History,
				Logger:          logger,
				RequestTimeout:  globalCfg.Server.RequestTimeout,
				ShutdownTimeout: globalCfg.Server.ShutdownTimeout,
			}
			group, ctx := errgroup.WithContext(cmd.Context())
			group.Go(func() error {
				logger.Info("starting api",
					zap.String("addr", addr),
					zap.String("provider", globalCfg.Model.Provider),
					zap.String("model", globalCfg.Model.Name),
				)
				return api.ServeContext(ctx, addr)
			})
			err = group.Wait()
			if ctx.Err() != nil && cmd.Context().Err() != nil {
				logger.Info("api stopped")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to server.addr)")
	return cmd
}
