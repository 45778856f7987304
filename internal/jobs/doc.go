// Package jobs couples each pipeline run to an event channel carrying
// progress, llm_token, warning, and done events. Subscribers replay the
// buffered history and then follow live; the buffered final artifact remains
// the authoritative, schema-validated result — events are hints.
package jobs
