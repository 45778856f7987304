package providers

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/config"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

type fakeClient struct {
	name       string
	candidates []Candidate
	episodes   []EpisodeInfo
	searchErr  error
	calls      int
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) Search(context.Context, Kind, string, int) ([]Candidate, error) {
	f.calls++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates, nil
}

func (f *fakeClient) Fetch(_ context.Context, kind Kind, id string) (*Detail, error) {
	return &Detail{Provider: f.name, Kind: kind, ID: id, Title: "Fetched", Year: 2015}, nil
}

func (f *fakeClient) ListEpisodes(context.Context, string) ([]EpisodeInfo, error) {
	return f.episodes, nil
}

func (f *fakeClient) ListTracks(context.Context, string) ([]TrackInfo, error) {
	return nil, ErrUnsupported
}

func newTestGateway(t *testing.T, offline bool, clients ...Client) (*Gateway, *cachestore.Store) {
	t.Helper()
	store, err := cachestore.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	cfg := config.Default()
	cfg.Providers.Offline = offline
	gw := NewGateway(store, &cfg, logging.NewNop(), clients, WithSleeper(func(time.Duration) {}))
	return gw, store
}

func TestSearchPrefersPrimary(t *testing.T) {
	primary := &fakeClient{name: "tvdb", candidates: []Candidate{{Provider: "tvdb", ID: "1", Title: "Show"}}}
	fallback := &fakeClient{name: "tvmaze", candidates: []Candidate{{Provider: "tvmaze", ID: "9", Title: "Show"}}}
	gw, _ := newTestGateway(t, false, primary, fallback)

	candidates, err := gw.Search(t.Context(), media.TypeTV, KindSeries, "Show", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Provider != "tvdb" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
	if fallback.calls != 0 {
		t.Fatal("fallback consulted despite primary success")
	}
}

func TestSearchFallsBackOnPermanentError(t *testing.T) {
	primary := &fakeClient{name: "tvdb", searchErr: &HTTPError{Provider: "tvdb", StatusCode: http.StatusForbidden}}
	fallback := &fakeClient{name: "tvmaze", candidates: []Candidate{{Provider: "tvmaze", ID: "9", Title: "Show"}}}
	gw, _ := newTestGateway(t, false, primary, fallback)

	candidates, err := gw.Search(t.Context(), media.TypeTV, KindSeries, "Show", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Provider != "tvmaze" {
		t.Fatalf("expected fallback candidates, got %+v", candidates)
	}
	if primary.calls != 1 {
		t.Fatalf("permanent error should not be retried, calls = %d", primary.calls)
	}
}

func TestSearchFallsBackOnPoorData(t *testing.T) {
	primary := &fakeClient{name: "tvdb"}
	fallback := &fakeClient{name: "tvmaze", candidates: []Candidate{{Provider: "tvmaze", ID: "9", Title: "Show"}}}
	gw, _ := newTestGateway(t, false, primary, fallback)

	candidates, err := gw.Search(t.Context(), media.TypeTV, KindSeries, "Show", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Provider != "tvmaze" {
		t.Fatalf("expected fallback on empty primary, got %+v", candidates)
	}
}

func TestSearchRetriesTransientErrors(t *testing.T) {
	primary := &fakeClient{name: "tvdb", searchErr: &HTTPError{Provider: "tvdb", StatusCode: http.StatusInternalServerError}}
	gw, _ := newTestGateway(t, false, primary)

	_, err := gw.Search(t.Context(), media.TypeTV, KindSeries, "Show", 0)
	if !errors.Is(err, services.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if primary.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", primary.calls)
	}
}

func TestSearchServesFromCache(t *testing.T) {
	primary := &fakeClient{name: "tvdb", candidates: []Candidate{{Provider: "tvdb", ID: "1", Title: "Show"}}}
	gw, _ := newTestGateway(t, false, primary)

	ctx := t.Context()
	if _, err := gw.Search(ctx, media.TypeTV, KindSeries, "Show", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := gw.Search(ctx, media.TypeTV, KindSeries, "Show", 0); err != nil {
		t.Fatal(err)
	}
	if primary.calls != 1 {
		t.Fatalf("second search should hit cache, calls = %d", primary.calls)
	}
}

func TestOfflineMissIsProviderUnavailable(t *testing.T) {
	gw, _ := newTestGateway(t, true, &fakeClient{name: "tvdb"})
	_, err := gw.Search(t.Context(), media.TypeTV, KindSeries, "Show", 0)
	if !errors.Is(err, services.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestEpisodesCachedInStore(t *testing.T) {
	primary := &fakeClient{name: "tvdb", episodes: []EpisodeInfo{
		{Season: 1, Episode: 1, Title: "Pilot"},
		{Season: 1, Episode: 2, Title: "Second"},
	}}
	gw, store := newTestGateway(t, false, primary)
	ctx := t.Context()

	infos, err := gw.Episodes(ctx, "tvdb", "311900")
	if err != nil {
		t.Fatalf("Episodes: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(infos))
	}

	rows, err := store.GetEpisodes(ctx, "tvdb", "311900")
	if err != nil || len(rows) != 2 {
		t.Fatalf("episodes not persisted: %v, %d rows", err, len(rows))
	}
}
