package config

import "strings"

func (c *Config) normalize() error {
	var err error
	if c.Paths.CachePath, err = expandPath(c.Paths.CachePath); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	c.Apply.CollisionStrategy = strings.ToLower(strings.TrimSpace(c.Apply.CollisionStrategy))

	for _, p := range []*ProviderHTTP{
		&c.Providers.TVDB, &c.Providers.TMDB, &c.Providers.MusicBrainz,
		&c.Providers.OMDB, &c.Providers.TVmaze, &c.Providers.FanartTV,
	} {
		p.APIKey = strings.TrimSpace(p.APIKey)
		p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
		if p.MaxAttempts <= 0 {
			p.MaxAttempts = defaultMaxAttempts
		}
		if p.BackoffBaseMillis <= 0 {
			p.BackoffBaseMillis = defaultBackoffBaseMillis
		}
		if p.RateCapacity <= 0 {
			p.RateCapacity = defaultRateCapacity
		}
		if p.RatePerSecond <= 0 {
			p.RatePerSecond = defaultRatePerSecond
		}
		if p.TimeoutSeconds <= 0 {
			p.TimeoutSeconds = defaultProviderTimeout
		}
	}

	if c.Apply.LockTimeoutSeconds <= 0 {
		c.Apply.LockTimeoutSeconds = defaultLockTimeoutSeconds
	}
	if c.Apply.LockStaleSeconds <= 0 {
		c.Apply.LockStaleSeconds = defaultLockStaleSeconds
	}
	if c.Plan.DecisionTTLDays <= 0 {
		c.Plan.DecisionTTLDays = defaultDecisionTTLDays
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	return nil
}
