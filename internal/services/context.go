package services

import "context"

type contextKey int

const (
	jobIDKey contextKey = iota
	planIDKey
)

// WithJobID attaches a pipeline job identifier to the context.
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the job identifier, if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(jobIDKey).(string)
	return id, ok && id != ""
}

// WithPlanID attaches a plan identifier to the context.
func WithPlanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, planIDKey, id)
}

// PlanIDFromContext extracts the plan identifier, if present.
func PlanIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(planIDKey).(string)
	return id, ok && id != ""
}
