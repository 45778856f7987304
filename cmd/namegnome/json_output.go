package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"github.com/DouglasMacKrell/namegnome-serve/internal/applier"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
)

func printJSON(payload any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func stdoutIsTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	if stdoutIsTTY() {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleLight)
	}
	return t
}

// renderReviewTable prints a human-readable plan summary.
func renderReviewTable(review *plan.Review) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Bucket", "Conf", "Origin", "Destination"})
	for _, item := range review.Items {
		t.AppendRow(table.Row{
			item.ID,
			item.Bucket,
			fmt.Sprintf("%.2f", item.Confidence),
			item.Origin,
			item.Dst.Path,
		})
	}
	t.Render()
	fmt.Printf("plan %s: %d items (%d high / %d medium / %d low), %d warnings\n",
		review.PlanID,
		review.Summary.TotalItems,
		review.Summary.ByConfidence["high"],
		review.Summary.ByConfidence["medium"],
		review.Summary.ByConfidence["low"],
		review.Summary.Warnings)
}

// renderApplyTable prints a human-readable apply report.
func renderApplyTable(result *applier.Result) {
	t := newTable()
	t.AppendHeader(table.Row{"Status", "Src", "Dst", "Reason"})
	for _, outcome := range result.Outcomes {
		t.AppendRow(table.Row{outcome.Status, outcome.Src, outcome.Dst, outcome.Reason})
	}
	t.Render()
	fmt.Printf("report %s: %d applied, %d skipped, %d failed",
		result.ReportID, result.Applied, result.Skipped, result.Failed)
	if result.RollbackToken != "" {
		fmt.Printf(" (rollback token %s)", result.RollbackToken)
	}
	if result.RolledBack {
		fmt.Print(" [rolled back]")
	}
	fmt.Println()
}
