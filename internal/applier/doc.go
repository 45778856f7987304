// Package applier executes approved plans: per-root exclusive locking (a
// flock lock file under the root plus an advisory row in the cache store),
// optimistic snapshot verification, atomic same-device renames with
// collision strategies, JSONL rollback manifests, and transactional or
// continue-on-error failure modes.
package applier
