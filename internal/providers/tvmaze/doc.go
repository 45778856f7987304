// Package tvmaze implements a minimal TVmaze client used as a TV search
// fallback when TVDB is unavailable or returns poor data. TVmaze requires no
// API key.
package tvmaze
