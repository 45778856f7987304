// Package anthology resolves multi-segment TV filenames to contiguous
// canonical episode groupings.
//
// The deterministic pass is an interval-algebraic refinement: declared
// episode intervals are sorted and normalized, overlaps are truncated using
// title anchors, gaps are detected (and filled when a unique canonical
// episode matches leftover title tokens), multi-episode intervals with a
// single matching title collapse to singletons, and title token streams are
// greedily assigned to runs of canonical episode titles. A shared leading
// moniker phrase on adjacent canonical titles is stripped before matching.
//
// An LLM assist runs only when the deterministic pass leaves unresolved
// flags or low confidence; its output is schema-validated and never
// authoritative about metadata, only about grouping.
package anthology
