// Package planner assembles mapper output into the stable, schema-versioned
// PlanReview artifact: merge policy between deterministic and LLM
// candidates, confidence bucketing, natural ordering, grouping with rollups,
// and the plan-level summary. It also drives the full plan pipeline from a
// scan snapshot.
package planner
