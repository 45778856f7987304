// Package providers is the uniform façade over the metadata providers
// (TVDB, TMDB, MusicBrainz, plus OMDb and TVmaze search fallbacks). It owns
// retry with exponential backoff, per-provider token-bucket rate limiting,
// read-through blob caching with per-kind TTLs, fallback chains for
// searches, and offline mode.
package providers
