package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/DouglasMacKrell/namegnome-serve/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CachePath = filepath.Join(base, "cache", "namegnome.db")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithOffline switches the config to cache-only provider access.
func WithOffline() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Providers.Offline = true
	}
}
