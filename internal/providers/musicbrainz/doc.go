// Package musicbrainz implements a minimal MusicBrainz WS/2 client: artist
// and release-group search plus release track listings via recordings.
package musicbrainz
