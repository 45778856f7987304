// Package services holds cross-cutting service plumbing: the error taxonomy
// shared by the planning and apply pipelines, and context carriers for job
// and plan identifiers.
package services
