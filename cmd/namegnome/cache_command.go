package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the provider cache",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Print cache statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()
			return printJSON(map[string]any{
				"path":  ctx.store.Path(),
				"stats": ctx.store.Stats(),
			})
		},
	}

	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired cache blobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()
			removed, err := ctx.store.CleanupExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("removed %d expired entries\n", removed)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached provider response",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()
			if err := ctx.store.ClearBlobs(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("cache cleared")
			return nil
		},
	}

	cmd.AddCommand(stats, cleanup, clear)
	return cmd
}
