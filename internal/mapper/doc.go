// Package mapper resolves scanned media files to canonical provider
// entities and produces candidate plan items from providers alone. Pinned
// decisions from the disambiguation ledger short-circuit entity searches;
// anthology candidates are forwarded to the anthology resolver.
package mapper
