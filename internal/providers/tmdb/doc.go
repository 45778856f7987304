// Package tmdb implements a minimal The Movie Database v3 client: movie and
// TV search, detail fetches, and season episode listings.
package tmdb
