package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDisambiguateCommand(ctx *commandContext) *cobra.Command {
	var token, choice string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "disambiguate",
		Short: "Resolve a pending entity choice",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			pending, err := ctx.ledger.Resolve(cmd.Context(), token, choice)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(pending)
			}
			fmt.Printf("resolved %s: %s pinned to %s/%s\n",
				pending.Token, pending.Field, pending.Choice.Provider, pending.Choice.ID)
			fmt.Println("re-run plan generate to pick up the decision")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "disambiguation token (dsk_…)")
	cmd.Flags().StringVar(&choice, "choice", "", "candidate id to pin")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the resolution as JSON")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("choice")
	return cmd
}
