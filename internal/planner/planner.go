package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DouglasMacKrell/namegnome-serve/internal/disambig"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/mapper"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

// DisambiguationError carries the minted token up to the transport layer,
// which renders it as HTTP 409.
type DisambiguationError struct {
	Pending *disambig.Pending
}

func (e *DisambiguationError) Error() string {
	return fmt.Sprintf("disambiguation required for %s (%s)", e.Pending.Field, e.Pending.Token)
}

func (e *DisambiguationError) Unwrap() error { return services.ErrDisambiguation }

// Request describes one planning run.
type Request struct {
	Snapshot *media.ScanSnapshot
	// Pin bypasses disambiguation with an explicit (provider, ext_id).
	Pin *mapper.Pin
	// Progress, when set, receives per-file progress.
	Progress func(done, total int, path string)
}

// Planner drives the plan pipeline: deterministic mapping (with anthology
// assist inside the mapper) followed by assembly.
type Planner struct {
	mapper *mapper.Mapper
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Planner.
func New(m *mapper.Mapper, logger *slog.Logger) *Planner {
	return &Planner{
		mapper: m,
		logger: logging.NewComponentLogger(logger, "planner"),
		now:    time.Now,
	}
}

// Plan maps every file of the snapshot and assembles the PlanReview.
// Per-item failures degrade to warnings; an unresolved entity choice aborts
// with a DisambiguationError.
func (p *Planner) Plan(ctx context.Context, req Request) (*plan.Review, error) {
	if req.Snapshot == nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "validate", "snapshot required", nil)
	}

	results := make([]*mapper.FileResult, 0, len(req.Snapshot.Files))
	for i := range req.Snapshot.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file := &req.Snapshot.Files[i]
		result, err := p.mapper.MapFile(ctx, req.Snapshot, file, req.Pin)
		if err != nil {
			return nil, err
		}
		if result.Disambiguation != nil {
			return nil, &DisambiguationError{Pending: result.Disambiguation}
		}
		results = append(results, result)
		if req.Progress != nil {
			req.Progress(i+1, len(req.Snapshot.Files), file.Path)
		}
	}

	review := Assemble(req.Snapshot, results, p.now())
	p.logger.Info("plan assembled",
		logging.String(logging.FieldPlanID, review.PlanID),
		logging.Int("items", len(review.Items)),
		logging.Int("groups", len(review.Groups)))
	return review, nil
}
