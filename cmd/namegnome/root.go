package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configPath string
	var offline bool

	cmd := &cobra.Command{
		Use:           "namegnome",
		Short:         "Rename media libraries against canonical provider metadata",
		Long:          "NameGnome Serve scans media roots, plans renames against TVDB/TMDB/MusicBrainz metadata, and applies approved plans with rollback manifests.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")
	cmd.PersistentFlags().BoolVar(&offline, "offline", false, "serve exclusively from the local cache")

	ctx := newCommandContext(&configPath, &offline)

	cmd.AddCommand(
		newServeCommand(ctx),
		newScanCommand(ctx),
		newPlanCommand(ctx),
		newDisambiguateCommand(ctx),
		newRollbackCommand(ctx),
		newCacheCommand(ctx),
		newConfigCommand(),
	)
	return cmd
}
