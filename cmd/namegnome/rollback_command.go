package main

import (
	"github.com/spf13/cobra"
)

func newRollbackCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rollback <token>",
		Short: "Undo the committed subset of a continue-on-error apply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			result, err := ctx.executor.Rollback(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(result)
			}
			renderApplyTable(result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the rollback report as JSON")
	return cmd
}
