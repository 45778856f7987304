package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DouglasMacKrell/namegnome-serve/internal/applier"
	"github.com/DouglasMacKrell/namegnome-serve/internal/mapper"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/planner"
	"github.com/DouglasMacKrell/namegnome-serve/internal/scanner"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate and apply rename plans",
	}
	cmd.AddCommand(newPlanGenerateCommand(ctx), newPlanApplyCommand(ctx))
	return cmd
}

func newPlanGenerateCommand(ctx *commandContext) *cobra.Command {
	var root, mediaType, pinProvider, pinID, outPath string
	var anthology, asJSON, verbose bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Plan renames for a media root",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			parsedType, err := media.ParseType(mediaType)
			if err != nil {
				return services.Wrap(services.ErrValidation, "plan", "validate", err.Error(), nil)
			}
			if err := ctx.cfg.RequireProviderKeys(string(parsedType)); err != nil {
				return services.Wrap(services.ErrValidation, "plan", "validate", err.Error(), nil)
			}

			snapshot, err := ctx.scanner.Scan(cmd.Context(), scanner.Options{
				Root:      root,
				MediaType: parsedType,
				Anthology: anthology,
			})
			if err != nil {
				return err
			}

			var pin *mapper.Pin
			if pinProvider != "" && pinID != "" {
				pin = &mapper.Pin{Provider: pinProvider, ExtID: pinID}
			}
			review, err := ctx.planner.Plan(cmd.Context(), planner.Request{Snapshot: snapshot, Pin: pin})
			if err != nil {
				var disambigErr *planner.DisambiguationError
				if errors.As(err, &disambigErr) {
					return renderDisambiguation(disambigErr, asJSON)
				}
				return err
			}

			if outPath != "" {
				encoded, encodeErr := plan.EncodeCanonical(review)
				if encodeErr != nil {
					return encodeErr
				}
				if writeErr := os.WriteFile(outPath, append(encoded, '\n'), 0o644); writeErr != nil {
					return services.Wrap(services.ErrFilesystem, "plan", "write", outPath, writeErr)
				}
			}
			if asJSON {
				encoded, encodeErr := plan.EncodeCanonical(review)
				if encodeErr != nil {
					return encodeErr
				}
				fmt.Println(string(encoded))
				return nil
			}
			renderReviewTable(review)
			if verbose {
				for _, item := range review.Items {
					if len(item.Warnings) > 0 {
						fmt.Printf("  %s warnings: %v\n", item.ID, item.Warnings)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "media root to plan")
	cmd.Flags().StringVar(&mediaType, "media-type", "", "tv, movie, or music")
	cmd.Flags().BoolVar(&anthology, "anthology", false, "resolve multi-segment TV files against canonical episodes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the canonical PlanReview JSON")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print per-item warnings")
	cmd.Flags().StringVar(&pinProvider, "provider", "", "pin entity resolution to this provider")
	cmd.Flags().StringVar(&pinID, "provider-id", "", "pin entity resolution to this provider id")
	cmd.Flags().StringVar(&outPath, "out", "", "write the canonical PlanReview to this file")
	_ = cmd.MarkFlagRequired("root")
	_ = cmd.MarkFlagRequired("media-type")
	return cmd
}

func renderDisambiguation(err *planner.DisambiguationError, asJSON bool) error {
	pending := err.Pending
	if asJSON {
		_ = printJSON(map[string]any{
			"status":               "disambiguation_required",
			"disambiguation_token": pending.Token,
			"field":                pending.Field,
			"candidates":           pending.Candidates,
		})
	} else {
		fmt.Printf("disambiguation required for %s (token %s):\n", pending.Field, pending.Token)
		for _, candidate := range pending.Candidates {
			fmt.Printf("  [%s] %s (%d) via %s\n", candidate.ID, candidate.Title, candidate.Year, candidate.Provider)
		}
		fmt.Println("resolve with: namegnome disambiguate --token", pending.Token, "--choice <id>")
	}
	return err
}

func newPlanApplyCommand(ctx *commandContext) *cobra.Command {
	var planPath, root, mode, collision string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply an approved plan",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ctx.ensure(); err != nil {
				return err
			}
			defer ctx.close()

			data, err := os.ReadFile(planPath)
			if err != nil {
				return services.Wrap(services.ErrValidation, "apply", "read plan", planPath, err)
			}
			var review plan.Review
			if err := json.Unmarshal(data, &review); err != nil {
				return services.Wrap(services.ErrValidation, "apply", "parse plan", planPath, err)
			}

			parsedMode, ok := applier.ParseMode(mode)
			if !ok {
				return services.Wrap(services.ErrValidation, "apply", "validate", "invalid mode "+mode, nil)
			}
			parsedCollision, ok := applier.ParseCollisionStrategy(collision)
			if !ok {
				return services.Wrap(services.ErrValidation, "apply", "validate", "invalid collision strategy "+collision, nil)
			}
			if collision == "" {
				if configured, okCfg := applier.ParseCollisionStrategy(ctx.cfg.Apply.CollisionStrategy); okCfg {
					parsedCollision = configured
				}
			}

			result, err := ctx.executor.Apply(cmd.Context(), applier.Request{
				Review:    &review,
				Root:      root,
				Mode:      parsedMode,
				Collision: parsedCollision,
			})
			if err != nil {
				return err
			}
			if asJSON {
				if err := printJSON(result); err != nil {
					return err
				}
			} else {
				renderApplyTable(result)
			}
			if result.Failed > 0 {
				return services.Wrap(services.ErrPartial, "apply", "",
					fmt.Sprintf("%d of %d items failed", result.Failed, len(result.Outcomes)), nil)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "path to a PlanReview JSON file")
	cmd.Flags().StringVar(&root, "root", "", "media root the plan applies to")
	cmd.Flags().StringVar(&mode, "mode", "", "dry_run, transactional, or continue_on_error")
	cmd.Flags().StringVar(&collision, "on-collision", "", "skip, overwrite, or backup")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the apply report as JSON")
	_ = cmd.MarkFlagRequired("plan")
	_ = cmd.MarkFlagRequired("root")
	return cmd
}
