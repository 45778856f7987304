package logging

import (
	"context"
	"log/slog"

	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldJobID is the standardized structured logging key for pipeline job identifiers.
	FieldJobID = "job_id"
	// FieldPlanID is the standardized structured logging key for plan identifiers.
	FieldPlanID = "plan_id"
	// FieldProvider is the standardized structured logging key for metadata provider names.
	FieldProvider = "provider"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if id, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, id))
	}
	if id, ok := services.PlanIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldPlanID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
