package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	CachePath string `toml:"cache_path"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
}

// ProviderHTTP holds the retry and rate-limit policy for one provider.
type ProviderHTTP struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	MaxAttempts       int     `toml:"max_attempts"`
	BackoffBaseMillis int     `toml:"backoff_base_millis"`
	RateCapacity      int     `toml:"rate_capacity"`
	RatePerSecond     float64 `toml:"rate_per_second"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Providers configures every metadata provider the gateway can reach.
type Providers struct {
	TVDB        ProviderHTTP `toml:"tvdb"`
	TMDB        ProviderHTTP `toml:"tmdb"`
	MusicBrainz ProviderHTTP `toml:"musicbrainz"`
	OMDB        ProviderHTTP `toml:"omdb"`
	TVmaze      ProviderHTTP `toml:"tvmaze"`
	FanartTV    ProviderHTTP `toml:"fanarttv"`
	Offline     bool         `toml:"offline"`
}

// LLM contains the Ollama connection used by the anthology assist.
type LLM struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Apply contains executor policy for the apply phase.
type Apply struct {
	CollisionStrategy  string `toml:"collision_strategy"`
	LockTimeoutSeconds int    `toml:"lock_timeout_seconds"`
	LockStaleSeconds   int    `toml:"lock_stale_seconds"`
}

// Plan contains planning thresholds.
type Plan struct {
	DecisionTTLDays int `toml:"decision_ttl_days"`
}

// Config is the root configuration object passed explicitly to every
// component; there are no process-wide singletons besides the cache handle
// and the provider registry initialised at startup.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Providers Providers `toml:"providers"`
	LLM       LLM       `toml:"llm"`
	Apply     Apply     `toml:"apply"`
	Plan      Plan      `toml:"plan"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	Debug     bool   `toml:"debug"`
}

// Load reads configuration from path (or the default location when path is
// empty), layers environment overrides, normalizes, and validates. It returns
// the resolved path and whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvironment()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// applyEnvironment overlays provider credentials and runtime switches from
// the process environment. Environment values win over file values.
func (c *Config) applyEnvironment() {
	if v := strings.TrimSpace(os.Getenv("TVDB_API_KEY")); v != "" {
		c.Providers.TVDB.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("TMDB_API_KEY")); v != "" {
		c.Providers.TMDB.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OMDB_API_KEY")); v != "" {
		c.Providers.OMDB.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("FANARTTV_API_KEY")); v != "" {
		c.Providers.FanartTV.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("NAMEGNOME_CACHE_PATH")); v != "" {
		c.Paths.CachePath = v
	}
	switch strings.TrimSpace(os.Getenv("NAMEGNOME_DEBUG")) {
	case "1", "true":
		c.Debug = true
	case "0", "false":
		c.Debug = false
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(defaultPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaultPath, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return defaultPath, true, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Paths.CachePath), c.Paths.LogDir}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// WriteSample writes the embedded sample configuration to path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}
