package config

import (
	"errors"
	"fmt"
	"strings"
)

var validCollisionStrategies = map[string]struct{}{
	"skip":      {},
	"overwrite": {},
	"backup":    {},
}

// Validate checks invariants the rest of the system depends on. Provider API
// keys are validated lazily: only the providers a plan actually touches need
// credentials, and offline mode needs none.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.CachePath) == "" {
		problems = append(problems, "paths.cache_path must not be empty")
	}
	if _, ok := validCollisionStrategies[c.Apply.CollisionStrategy]; !ok {
		problems = append(problems, fmt.Sprintf("apply.collision_strategy %q must be one of skip, overwrite, backup", c.Apply.CollisionStrategy))
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format %q must be console or json", c.LogFormat))
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q must be debug, info, warn, or error", c.LogLevel))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// RequireProviderKeys verifies that the providers needed for the given media
// type have credentials, unless offline mode is active.
func (c *Config) RequireProviderKeys(mediaType string) error {
	if c.Providers.Offline {
		return nil
	}
	switch mediaType {
	case "tv":
		if c.Providers.TVDB.APIKey == "" {
			return errors.New("TVDB_API_KEY is required for tv planning")
		}
	case "movie":
		if c.Providers.TMDB.APIKey == "" {
			return errors.New("TMDB_API_KEY is required for movie planning")
		}
	}
	return nil
}
