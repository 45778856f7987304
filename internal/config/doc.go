// Package config loads and validates NameGnome Serve configuration.
//
// Configuration comes from a TOML file (default
// ~/.config/namegnome/config.toml) layered over built-in defaults, with
// environment variables supplying provider credentials and a handful of
// runtime switches (TVDB_API_KEY, TMDB_API_KEY, OMDB_API_KEY,
// FANARTTV_API_KEY, NAMEGNOME_CACHE_PATH, NAMEGNOME_DEBUG). ANIDB_API_KEY is
// not read: there is no AniDB provider or config field.
package config
