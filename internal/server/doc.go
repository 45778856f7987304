// Package server exposes the scan/plan/apply pipeline over HTTP: JSON
// endpoints for the three phases, disambiguation resume, and per-job
// Server-Sent Event streams. The buffered final JSON reply is authoritative;
// SSE events are hints.
package server
