// Package fanarttv implements a minimal fanart.tv client used to enrich
// pinned entities with artwork metadata. Artwork is advisory; planning never
// depends on it.
package fanarttv
