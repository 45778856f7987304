// Package tvdb implements a minimal TheTVDB v4 client: login-token
// acquisition and refresh, series search, and season episode listings.
package tvdb
