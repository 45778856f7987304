package providers

import (
	"net/http"
	"time"

	"github.com/DouglasMacKrell/namegnome-serve/internal/config"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/fanarttv"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/musicbrainz"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/omdb"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/tmdb"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/tvdb"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/tvmaze"
)

func httpClientFor(p config.ProviderHTTP) *http.Client {
	return &http.Client{Timeout: time.Duration(p.TimeoutSeconds) * time.Second}
}

func tvdbClient(cfg *config.Config) (Client, error) {
	client, err := tvdb.New(cfg.Providers.TVDB.APIKey, cfg.Providers.TVDB.BaseURL,
		tvdb.WithHTTPClient(httpClientFor(cfg.Providers.TVDB)))
	if err != nil {
		return nil, err
	}
	return &TVDBAdapter{Client: client}, nil
}

func tmdbClient(cfg *config.Config) (Client, error) {
	client, err := tmdb.New(cfg.Providers.TMDB.APIKey, cfg.Providers.TMDB.BaseURL,
		tmdb.WithHTTPClient(httpClientFor(cfg.Providers.TMDB)))
	if err != nil {
		return nil, err
	}
	return &TMDBAdapter{Client: client}, nil
}

func musicbrainzClient(cfg *config.Config) (Client, error) {
	client, err := musicbrainz.New(cfg.Providers.MusicBrainz.BaseURL,
		musicbrainz.WithHTTPClient(httpClientFor(cfg.Providers.MusicBrainz)))
	if err != nil {
		return nil, err
	}
	return &MusicBrainzAdapter{Client: client}, nil
}

func omdbClient(cfg *config.Config) (Client, error) {
	client, err := omdb.New(cfg.Providers.OMDB.APIKey, cfg.Providers.OMDB.BaseURL,
		omdb.WithHTTPClient(httpClientFor(cfg.Providers.OMDB)))
	if err != nil {
		return nil, err
	}
	return &OMDBAdapter{Client: client}, nil
}

// ArtworkClient builds the optional fanart.tv client; nil when no key is
// configured.
func ArtworkClient(cfg *config.Config) (*fanarttv.Client, error) {
	if cfg.Providers.FanartTV.APIKey == "" {
		return nil, nil
	}
	return fanarttv.New(cfg.Providers.FanartTV.APIKey, cfg.Providers.FanartTV.BaseURL,
		fanarttv.WithHTTPClient(httpClientFor(cfg.Providers.FanartTV)))
}

func tvmazeClient(cfg *config.Config) (Client, error) {
	client, err := tvmaze.New(cfg.Providers.TVmaze.BaseURL,
		tvmaze.WithHTTPClient(httpClientFor(cfg.Providers.TVmaze)))
	if err != nil {
		return nil, err
	}
	return &TVmazeAdapter{Client: client}, nil
}
