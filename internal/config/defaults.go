package config

const (
	defaultConfigPath         = "~/.config/namegnome/config.toml"
	defaultCachePath          = "~/.cache/namegnome/namegnome.db"
	defaultLogDir             = "~/.local/share/namegnome/logs"
	defaultAPIBind            = "127.0.0.1:8322"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultTVDBBaseURL        = "https://api4.thetvdb.com/v4"
	defaultTMDBBaseURL        = "https://api.themoviedb.org/3"
	defaultMusicBrainzBaseURL = "https://musicbrainz.org/ws/2"
	defaultOMDBBaseURL        = "https://www.omdbapi.com"
	defaultTVmazeBaseURL      = "https://api.tvmaze.com"
	defaultFanartTVBaseURL    = "https://webservice.fanart.tv/v3"
	defaultOllamaBaseURL      = "http://127.0.0.1:11434"
	defaultOllamaModel        = "llama3.2"
	defaultLLMTimeoutSeconds  = 30
	defaultProviderTimeout    = 10
	defaultMaxAttempts        = 3
	defaultBackoffBaseMillis  = 500
	defaultRateCapacity       = 10
	defaultRatePerSecond      = 4.0
	defaultCollisionStrategy  = "skip"
	defaultLockTimeoutSeconds = 5
	defaultLockStaleSeconds   = 600
	defaultDecisionTTLDays    = 90
)

func defaultProviderHTTP(baseURL string) ProviderHTTP {
	return ProviderHTTP{
		BaseURL:           baseURL,
		MaxAttempts:       defaultMaxAttempts,
		BackoffBaseMillis: defaultBackoffBaseMillis,
		RateCapacity:      defaultRateCapacity,
		RatePerSecond:     defaultRatePerSecond,
		TimeoutSeconds:    defaultProviderTimeout,
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	mb := defaultProviderHTTP(defaultMusicBrainzBaseURL)
	// MusicBrainz asks anonymous clients to stay at or under one call per second.
	mb.RatePerSecond = 1.0
	mb.RateCapacity = 1

	return Config{
		Paths: Paths{
			CachePath: defaultCachePath,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Providers: Providers{
			TVDB:        defaultProviderHTTP(defaultTVDBBaseURL),
			TMDB:        defaultProviderHTTP(defaultTMDBBaseURL),
			MusicBrainz: mb,
			OMDB:        defaultProviderHTTP(defaultOMDBBaseURL),
			TVmaze:      defaultProviderHTTP(defaultTVmazeBaseURL),
			FanartTV:    defaultProviderHTTP(defaultFanartTVBaseURL),
		},
		LLM: LLM{
			Enabled:        true,
			BaseURL:        defaultOllamaBaseURL,
			Model:          defaultOllamaModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Apply: Apply{
			CollisionStrategy:  defaultCollisionStrategy,
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
			LockStaleSeconds:   defaultLockStaleSeconds,
		},
		Plan: Plan{
			DecisionTTLDays: defaultDecisionTTLDays,
		},
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}
