// Package logging configures the process-wide slog logger: console or JSON
// handlers selected by config, typed attribute helpers, context-derived
// fields, and absolute-path redaction when debug logging is disabled.
package logging
