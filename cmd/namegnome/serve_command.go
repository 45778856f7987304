package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DouglasMacKrell/namegnome-serve/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.New(ctx.cfg, ctx.logger, ctx.store, ctx.scanner, ctx.planner, ctx.executor, ctx.ledger)
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			srv.Stop()
			return nil
		},
	}
}
