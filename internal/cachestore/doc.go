// Package cachestore is the durable SQLite store backing the planning
// pipeline: provider entities, episode and track lists, persisted
// disambiguation decisions, TTL-keyed provider response blobs, advisory
// per-root apply locks, and a small kv table for pending pipeline state.
//
// TTL interpretation is soft: expired rows are returned alongside a stale
// flag so callers may refresh in the background. All writes are atomic;
// readers see either the pre- or post-state.
package cachestore
