package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/config"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/fanarttv"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
	"github.com/DouglasMacKrell/namegnome-serve/internal/textutil"
)

// Cache TTLs per entity kind.
const (
	ttlSeries   = 30 * 24 * time.Hour
	ttlEpisodes = 7 * 24 * time.Hour
	ttlMovie    = 30 * 24 * time.Hour
	ttlAlbum    = 30 * 24 * time.Hour
)

type managedProvider struct {
	client  Client
	limiter *rate.Limiter
	policy  retryPolicy
}

// Gateway is the uniform provider façade. Searches fall through a per-media
// chain (primary first); detail fetches never fall back. All calls are
// read-through cached in the store and gated by per-provider token buckets.
type Gateway struct {
	store   *cachestore.Store
	logger  *slog.Logger
	offline bool
	sleep   func(time.Duration)
	artwork *fanarttv.Client

	providers map[string]*managedProvider
	registry  map[media.Type][]string
}

// Option customizes gateway construction.
type Option func(*Gateway)

// WithSleeper overrides how backoff sleeps are performed (useful for tests).
func WithSleeper(sleep func(time.Duration)) Option {
	return func(g *Gateway) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

// WithArtworkClient enables fanart.tv enrichment of fetched entities.
// Artwork is advisory metadata; failures never surface to planning.
func WithArtworkClient(client *fanarttv.Client) Option {
	return func(g *Gateway) {
		g.artwork = client
	}
}

// NewGateway builds a gateway over the supplied provider clients. The
// registry maps each media type to its provider chain, primary first.
func NewGateway(store *cachestore.Store, cfg *config.Config, logger *slog.Logger, clients []Client, opts ...Option) *Gateway {
	g := &Gateway{
		store:     store,
		logger:    logging.NewComponentLogger(logger, "provider-gateway"),
		offline:   cfg != nil && cfg.Providers.Offline,
		sleep:     time.Sleep,
		providers: make(map[string]*managedProvider, len(clients)),
		registry: map[media.Type][]string{
			media.TypeTV:    {"tvdb", "tvmaze"},
			media.TypeMovie: {"tmdb", "omdb"},
			media.TypeMusic: {"musicbrainz"},
		},
	}
	for _, client := range clients {
		providerCfg := providerConfig(cfg, client.Name())
		g.providers[client.Name()] = &managedProvider{
			client:  client,
			limiter: rate.NewLimiter(rate.Limit(providerCfg.RatePerSecond), providerCfg.RateCapacity),
			policy: retryPolicy{
				maxAttempts: providerCfg.MaxAttempts,
				baseDelay:   time.Duration(providerCfg.BackoffBaseMillis) * time.Millisecond,
			},
		}
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func providerConfig(cfg *config.Config, name string) config.ProviderHTTP {
	if cfg == nil {
		base := config.Default()
		cfg = &base
	}
	switch name {
	case "tvdb":
		return cfg.Providers.TVDB
	case "tmdb":
		return cfg.Providers.TMDB
	case "musicbrainz":
		return cfg.Providers.MusicBrainz
	case "omdb":
		return cfg.Providers.OMDB
	case "tvmaze":
		return cfg.Providers.TVmaze
	case "fanarttv":
		return cfg.Providers.FanartTV
	default:
		return config.ProviderHTTP{
			MaxAttempts:       3,
			BackoffBaseMillis: 500,
			RateCapacity:      10,
			RatePerSecond:     4,
			TimeoutSeconds:    10,
		}
	}
}

// Offline reports whether the gateway serves exclusively from cache.
func (g *Gateway) Offline() bool { return g.offline }

func ttlForKind(kind Kind) time.Duration {
	switch kind {
	case KindMovie:
		return ttlMovie
	case KindArtist, KindAlbum:
		return ttlAlbum
	default:
		return ttlSeries
	}
}

// Search resolves candidates for (kind, query, year) through the media
// type's provider chain. Fallback providers are consulted only on search and
// only after the primary fails (a transient error once its retries are
// exhausted, a permanent error at once) or returns poor data (no candidates).
func (g *Gateway) Search(ctx context.Context, mediaType media.Type, kind Kind, query string, year int) ([]Candidate, error) {
	cacheKey := fmt.Sprintf("search:%s:%s:%d", kind, textutil.TitleNorm(query), year)

	chain := g.registry[mediaType]
	if cached, ok := g.readCachedCandidates(ctx, string(mediaType), cacheKey); ok {
		return cached, nil
	}
	if g.offline {
		return nil, services.Wrap(services.ErrProviderUnavailable, "provider", "search",
			fmt.Sprintf("offline and no cached result for %q", query), nil)
	}

	var lastErr error
	for _, name := range chain {
		managed, ok := g.providers[name]
		if !ok {
			continue
		}
		candidates, err := g.searchOne(ctx, managed, kind, query, year)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				continue
			}
			lastErr = err
			g.logger.Warn("provider search failed, trying fallback",
				logging.String(logging.FieldProvider, name),
				logging.Error(err))
			continue
		}
		if len(candidates) == 0 {
			// Poor data: a provider that cannot name any candidate for the
			// query defers to the next in the chain.
			g.logger.Debug("provider returned no candidates",
				logging.String(logging.FieldProvider, name),
				logging.String("query", query))
			continue
		}
		g.writeCachedCandidates(ctx, string(mediaType), cacheKey, candidates, ttlForKind(kind))
		return candidates, nil
	}

	if lastErr != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, "provider", "search", query, lastErr)
	}
	return nil, nil
}

func (g *Gateway) searchOne(ctx context.Context, managed *managedProvider, kind Kind, query string, year int) ([]Candidate, error) {
	var candidates []Candidate
	err := withRetry(ctx, managed.policy, g.sleep, func() error {
		if err := managed.limiter.Wait(ctx); err != nil {
			return err
		}
		var callErr error
		candidates, callErr = managed.client.Search(ctx, kind, query, year)
		return callErr
	})
	return candidates, err
}

// Fetch retrieves entity detail from a specific provider. No fallback: the
// caller asked for this provider's ext_id.
func (g *Gateway) Fetch(ctx context.Context, ref Ref) (*Detail, error) {
	cacheKey := fmt.Sprintf("detail:%s:%s", ref.Kind, ref.ID)
	if blob, err := g.store.GetCacheBlob(ctx, ref.Provider, cacheKey); err == nil && !blob.Stale {
		var detail Detail
		if unmarshalErr := json.Unmarshal(blob.Data, &detail); unmarshalErr == nil {
			return &detail, nil
		}
		// Corrupt blob: evict and refetch.
		_ = g.store.EvictCacheBlob(ctx, ref.Provider, cacheKey)
	}
	if g.offline {
		return nil, services.Wrap(services.ErrProviderUnavailable, "provider", "fetch",
			fmt.Sprintf("offline and no cached detail for %s/%s", ref.Provider, ref.ID), nil)
	}

	managed, ok := g.providers[ref.Provider]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "provider", "fetch",
			fmt.Sprintf("unknown provider %q", ref.Provider), nil)
	}

	var detail *Detail
	err := withRetry(ctx, managed.policy, g.sleep, func() error {
		if err := managed.limiter.Wait(ctx); err != nil {
			return err
		}
		var callErr error
		detail, callErr = managed.client.Fetch(ctx, ref.Kind, ref.ID)
		return callErr
	})
	if err != nil {
		return nil, services.Wrap(services.ErrProviderUnavailable, "provider", "fetch", ref.ID, err)
	}

	if data, marshalErr := json.Marshal(detail); marshalErr == nil {
		_ = g.store.PutCacheBlob(ctx, ref.Provider, cacheKey, data, ttlForKind(ref.Kind))
	}
	_ = g.store.PutEntity(ctx, cachestore.Entity{
		Provider:   detail.Provider,
		EntityType: string(detail.Kind),
		ExtID:      detail.ID,
		Title:      detail.Title,
		TitleNorm:  textutil.TitleNorm(detail.Title),
		Year:       yearOrUnknown(detail.Year),
		FetchedAt:  time.Now(),
		TTL:        ttlForKind(ref.Kind),
	})
	g.enrichArtwork(ctx, ref)
	return detail, nil
}

// enrichArtwork caches fanart.tv artwork for a freshly pinned entity.
func (g *Gateway) enrichArtwork(ctx context.Context, ref Ref) {
	if g.artwork == nil || g.offline {
		return
	}
	cacheKey := "artwork:" + string(ref.Kind) + ":" + ref.ID
	if blob, err := g.store.GetCacheBlob(ctx, "fanarttv", cacheKey); err == nil && !blob.Stale {
		return
	}
	var art *fanarttv.Artwork
	var err error
	switch ref.Kind {
	case KindMovie:
		art, err = g.artwork.MovieArtwork(ctx, ref.ID)
	case KindSeries:
		art, err = g.artwork.TVArtwork(ctx, ref.ID)
	default:
		return
	}
	if err != nil {
		g.logger.Debug("artwork lookup failed",
			logging.String(logging.FieldProvider, "fanarttv"),
			logging.Error(err))
		return
	}
	if data, marshalErr := json.Marshal(art); marshalErr == nil {
		_ = g.store.PutCacheBlob(ctx, "fanarttv", cacheKey, data, ttlSeries)
	}
}

// Episodes returns the canonical episode list for a series, cached in the
// episodes table with a freshness marker blob.
func (g *Gateway) Episodes(ctx context.Context, provider, seriesID string) ([]EpisodeInfo, error) {
	markerKey := "episodes:" + seriesID
	blob, blobErr := g.store.GetCacheBlob(ctx, provider, markerKey)
	fresh := blobErr == nil && !blob.Stale

	if fresh || g.offline {
		cached, err := g.store.GetEpisodes(ctx, provider, seriesID)
		if err == nil && len(cached) > 0 {
			return episodeInfos(cached), nil
		}
		if g.offline {
			return nil, services.Wrap(services.ErrProviderUnavailable, "provider", "episodes",
				fmt.Sprintf("offline and no cached episodes for %s/%s", provider, seriesID), nil)
		}
	}

	managed, ok := g.providers[provider]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "provider", "episodes",
			fmt.Sprintf("unknown provider %q", provider), nil)
	}

	var infos []EpisodeInfo
	err := withRetry(ctx, managed.policy, g.sleep, func() error {
		if err := managed.limiter.Wait(ctx); err != nil {
			return err
		}
		var callErr error
		infos, callErr = managed.client.ListEpisodes(ctx, seriesID)
		return callErr
	})
	if err != nil {
		// Stale-while-revalidate: serve the stale table rows if we have them.
		if cached, cacheErr := g.store.GetEpisodes(ctx, provider, seriesID); cacheErr == nil && len(cached) > 0 {
			g.logger.Warn("serving stale episode list after refresh failure",
				logging.String(logging.FieldProvider, provider),
				logging.Error(err))
			return episodeInfos(cached), nil
		}
		return nil, services.Wrap(services.ErrProviderUnavailable, "provider", "episodes", seriesID, err)
	}

	now := time.Now()
	rows := make([]cachestore.Episode, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, cachestore.Episode{
			Provider: provider, SeriesID: seriesID,
			Season: info.Season, Episode: info.Episode,
			Title: info.Title, AirDate: info.AirDate, FetchedAt: now,
		})
	}
	if err := g.store.PutEpisodes(ctx, provider, seriesID, rows); err != nil {
		return nil, services.Wrap(services.ErrFatal, "provider", "episodes", "persist episode list", err)
	}
	_ = g.store.PutCacheBlob(ctx, provider, markerKey, []byte("{}"), ttlEpisodes)
	return infos, nil
}

// Tracks returns the canonical track list for an album, cached in the tracks
// table with a freshness marker blob.
func (g *Gateway) Tracks(ctx context.Context, provider, albumID string) ([]TrackInfo, error) {
	markerKey := "tracks:" + albumID
	blob, blobErr := g.store.GetCacheBlob(ctx, provider, markerKey)
	fresh := blobErr == nil && !blob.Stale

	if fresh || g.offline {
		cached, err := g.store.GetTracks(ctx, provider, albumID)
		if err == nil && len(cached) > 0 {
			return trackInfos(cached), nil
		}
		if g.offline {
			return nil, services.Wrap(services.ErrProviderUnavailable, "provider", "tracks",
				fmt.Sprintf("offline and no cached tracks for %s/%s", provider, albumID), nil)
		}
	}

	managed, ok := g.providers[provider]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "provider", "tracks",
			fmt.Sprintf("unknown provider %q", provider), nil)
	}

	var infos []TrackInfo
	err := withRetry(ctx, managed.policy, g.sleep, func() error {
		if err := managed.limiter.Wait(ctx); err != nil {
			return err
		}
		var callErr error
		infos, callErr = managed.client.ListTracks(ctx, albumID)
		return callErr
	})
	if err != nil {
		if cached, cacheErr := g.store.GetTracks(ctx, provider, albumID); cacheErr == nil && len(cached) > 0 {
			return trackInfos(cached), nil
		}
		return nil, services.Wrap(services.ErrProviderUnavailable, "provider", "tracks", albumID, err)
	}

	now := time.Now()
	rows := make([]cachestore.Track, 0, len(infos))
	for _, info := range infos {
		rows = append(rows, cachestore.Track{
			Provider: provider, AlbumID: albumID,
			Disc: info.Disc, Track: info.Track, Title: info.Title, FetchedAt: now,
		})
	}
	if err := g.store.PutTracks(ctx, provider, albumID, rows); err != nil {
		return nil, services.Wrap(services.ErrFatal, "provider", "tracks", "persist track list", err)
	}
	_ = g.store.PutCacheBlob(ctx, provider, markerKey, []byte("{}"), ttlAlbum)
	return infos, nil
}

func (g *Gateway) readCachedCandidates(ctx context.Context, provider, key string) ([]Candidate, bool) {
	blob, err := g.store.GetCacheBlob(ctx, provider, key)
	if err != nil {
		return nil, false
	}
	if blob.Stale && !g.offline {
		return nil, false
	}
	var candidates []Candidate
	if err := json.Unmarshal(blob.Data, &candidates); err != nil {
		_ = g.store.EvictCacheBlob(ctx, provider, key)
		return nil, false
	}
	return candidates, true
}

func (g *Gateway) writeCachedCandidates(ctx context.Context, provider, key string, candidates []Candidate, ttl time.Duration) {
	data, err := json.Marshal(candidates)
	if err != nil {
		return
	}
	_ = g.store.PutCacheBlob(ctx, provider, key, data, ttl)
}

func episodeInfos(rows []cachestore.Episode) []EpisodeInfo {
	infos := make([]EpisodeInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, EpisodeInfo{Season: row.Season, Episode: row.Episode, Title: row.Title, AirDate: row.AirDate})
	}
	return infos
}

func trackInfos(rows []cachestore.Track) []TrackInfo {
	infos := make([]TrackInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, TrackInfo{Disc: row.Disc, Track: row.Track, Title: row.Title})
	}
	return infos
}

func yearOrUnknown(year int) int {
	if year <= 0 {
		return cachestore.YearUnknown
	}
	return year
}

// BuildClients constructs the configured provider clients. Providers missing
// required credentials are skipped; the gateway's chain logic handles their
// absence.
func BuildClients(cfg *config.Config, logger *slog.Logger) []Client {
	var clients []Client
	log := logging.NewComponentLogger(logger, "providers")

	if key := strings.TrimSpace(cfg.Providers.TVDB.APIKey); key != "" {
		client, err := tvdbClient(cfg)
		if err != nil {
			log.Warn("tvdb client unavailable", logging.Error(err))
		} else {
			clients = append(clients, client)
		}
	}
	if key := strings.TrimSpace(cfg.Providers.TMDB.APIKey); key != "" {
		client, err := tmdbClient(cfg)
		if err != nil {
			log.Warn("tmdb client unavailable", logging.Error(err))
		} else {
			clients = append(clients, client)
		}
	}
	if client, err := musicbrainzClient(cfg); err != nil {
		log.Warn("musicbrainz client unavailable", logging.Error(err))
	} else {
		clients = append(clients, client)
	}
	if key := strings.TrimSpace(cfg.Providers.OMDB.APIKey); key != "" {
		if client, err := omdbClient(cfg); err != nil {
			log.Warn("omdb client unavailable", logging.Error(err))
		} else {
			clients = append(clients, client)
		}
	}
	if client, err := tvmazeClient(cfg); err != nil {
		log.Warn("tvmaze client unavailable", logging.Error(err))
	} else {
		clients = append(clients, client)
	}
	return clients
}
