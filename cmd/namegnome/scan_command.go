package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/scanner"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var root, mediaType string
	var anthology, asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a media root and print the snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			parsedType, err := media.ParseType(mediaType)
			if err != nil {
				return services.Wrap(services.ErrValidation, "scan", "validate", err.Error(), nil)
			}
			snapshot, err := ctx.scanner.Scan(cmd.Context(), scanner.Options{
				Root:      root,
				MediaType: parsedType,
				Anthology: anthology,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(snapshot)
			}
			fmt.Printf("scan %s: %d files under %s (fingerprint %s)\n",
				snapshot.ScanID, len(snapshot.Files), snapshot.Root, snapshot.Fingerprint[:16])
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "media root to scan")
	cmd.Flags().StringVar(&mediaType, "media-type", "", "tv, movie, or music")
	cmd.Flags().BoolVar(&anthology, "anthology", false, "treat multi-segment TV files as anthology candidates")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the snapshot as JSON")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("media-type")
	return cmd
}
