// Package ollama wraps a local Ollama chat endpoint for the anthology
// grouping assist. Responses are requested in JSON mode and validated by the
// caller against a closed schema; the model is never authoritative about
// metadata, only about grouping.
package ollama
