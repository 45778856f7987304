// Package plan defines the PlanReview artifact and its parts: plan items
// with confidence buckets, flat groups referencing item ids, the summary
// rollup, and the canonical byte-reproducible JSON encoding.
package plan
