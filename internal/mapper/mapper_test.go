package mapper

import (
	"context"
	"testing"
	"time"

	"github.com/DouglasMacKrell/namegnome-serve/internal/anthology"
	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/disambig"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers"
	"github.com/DouglasMacKrell/namegnome-serve/internal/testsupport"
	"github.com/DouglasMacKrell/namegnome-serve/internal/textutil"
)

// fakeTVDB serves a fixed series catalogue through the gateway contract.
type fakeTVDB struct {
	candidates []providers.Candidate
	episodes   []providers.EpisodeInfo
}

func (f *fakeTVDB) Name() string { return "tvdb" }

func (f *fakeTVDB) Search(context.Context, providers.Kind, string, int) ([]providers.Candidate, error) {
	return f.candidates, nil
}

func (f *fakeTVDB) Fetch(_ context.Context, kind providers.Kind, id string) (*providers.Detail, error) {
	for _, candidate := range f.candidates {
		if candidate.ID == id {
			return &providers.Detail{Provider: "tvdb", Kind: kind, ID: id, Title: candidate.Title, Year: candidate.Year}, nil
		}
	}
	return &providers.Detail{Provider: "tvdb", Kind: kind, ID: id}, nil
}

func (f *fakeTVDB) ListEpisodes(context.Context, string) ([]providers.EpisodeInfo, error) {
	return f.episodes, nil
}

func (f *fakeTVDB) ListTracks(context.Context, string) ([]providers.TrackInfo, error) {
	return nil, providers.ErrUnsupported
}

func newTVMapper(t *testing.T, fake *fakeTVDB) (*Mapper, *cachestore.Store) {
	t.Helper()
	store := testsupport.OpenStore(t)
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()
	gateway := providers.NewGateway(store, cfg, logger, []providers.Client{fake},
		providers.WithSleeper(func(time.Duration) {}))
	ledger := disambig.NewLedger(store, logger)
	resolver := anthology.NewResolver(nil, logger)
	return New(store, gateway, ledger, resolver, logger), store
}

func tvSnapshot(files ...media.MediaFile) *media.ScanSnapshot {
	return &media.ScanSnapshot{
		ScanID:      "scn_test",
		Root:        "/tv",
		MediaType:   media.TypeTV,
		Files:       files,
		Fingerprint: "fp",
	}
}

func TestMapTVExactEpisode(t *testing.T) {
	fake := &fakeTVDB{
		candidates: []providers.Candidate{{Provider: "tvdb", ID: "311900", Title: "Danger Mouse (2015)", Year: 2015}},
		episodes: []providers.EpisodeInfo{
			{Season: 1, Episode: 1, Title: "Danger Mouse Begins Again"},
		},
	}
	m, _ := newTVMapper(t, fake)

	file := media.MediaFile{
		Path: "/tv/Danger Mouse 2015-S01E01-Danger Mouse Begins Again.mp4",
		Type: media.TypeTV, Title: "Danger Mouse", Year: 2015, Season: 1, Episode: 1,
	}
	result, err := m.MapFile(t.Context(), tvSnapshot(file), &file, nil)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("candidates = %+v", result.Candidates)
	}
	candidate := result.Candidates[0]
	if candidate.Confidence != 1.0 || candidate.Origin != plan.OriginDeterministic {
		t.Fatalf("candidate = %+v", candidate)
	}
	want := "/tv/Danger Mouse (2015)/Season 01/Danger Mouse - S01E01 - Danger Mouse Begins Again.mp4"
	if candidate.Dst.Path != want {
		t.Fatalf("dst = %q\nwant %q", candidate.Dst.Path, want)
	}
	if len(candidate.Sources) != 1 || candidate.Sources[0].Provider != "tvdb" {
		t.Fatalf("sources = %+v", candidate.Sources)
	}
}

func TestMapTVAnthologyTwoSegments(t *testing.T) {
	fake := &fakeTVDB{
		candidates: []providers.Candidate{{Provider: "tvdb", ID: "414000", Title: "Firebuds", Year: 2022}},
		episodes: []providers.EpisodeInfo{
			{Season: 1, Episode: 1, Title: "Car In A Tree"},
			{Season: 1, Episode: 2, Title: "Dalmatian Day"},
		},
	}
	m, _ := newTVMapper(t, fake)

	file := media.MediaFile{
		Path: "/tv/Firebuds-S01E01-Car In A Tree Dalmatian Day.mp4",
		Type: media.TypeTV, Title: "Firebuds", Season: 1, Episode: 1,
		AnthologyCandidate: true,
		Segments: []media.Segment{{
			Start: 1, End: 1,
			TitleTokens: textutil.Tokenize("Car In A Tree Dalmatian Day"),
		}},
	}
	result, err := m.MapFile(t.Context(), tvSnapshot(file), &file, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("candidates = %+v", result.Candidates)
	}
	candidate := result.Candidates[0]
	if !candidate.Anthology || candidate.Confidence < 0.9 {
		t.Fatalf("candidate = %+v", candidate)
	}
	if candidate.Dst.Episode == nil || len(candidate.Dst.Episode.Episodes) != 2 {
		t.Fatalf("episodes = %+v", candidate.Dst.Episode)
	}
	want := "/tv/Firebuds (2022)/Season 01/Firebuds - S01E01-E02 - Car In A Tree & Dalmatian Day.mp4"
	if candidate.Dst.Path != want {
		t.Fatalf("dst = %q\nwant %q", candidate.Dst.Path, want)
	}
}

func TestMapTVAmbiguousMintsToken(t *testing.T) {
	fake := &fakeTVDB{
		candidates: []providers.Candidate{
			{Provider: "tvdb", ID: "70325", Title: "Danger Mouse", Year: 1981},
			{Provider: "tvdb", ID: "311900", Title: "Danger Mouse (2015)", Year: 2015},
		},
	}
	m, _ := newTVMapper(t, fake)

	file := media.MediaFile{
		Path: "/tv/Danger Mouse-S01E01-Pilot.mp4",
		Type: media.TypeTV, Title: "Danger Mouse", Season: 1, Episode: 1,
	}
	result, err := m.MapFile(t.Context(), tvSnapshot(file), &file, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Disambiguation == nil {
		t.Fatalf("expected disambiguation, got %+v", result)
	}
	if len(result.Disambiguation.Candidates) != 2 {
		t.Fatalf("candidates = %+v", result.Disambiguation.Candidates)
	}
}

func TestMapTVDecisionShortCircuitsSearch(t *testing.T) {
	fake := &fakeTVDB{
		candidates: []providers.Candidate{
			{Provider: "tvdb", ID: "70325", Title: "Danger Mouse", Year: 1981},
			{Provider: "tvdb", ID: "311900", Title: "Danger Mouse (2015)", Year: 2015},
		},
		episodes: []providers.EpisodeInfo{
			{Season: 1, Episode: 1, Title: "Danger Mouse Begins Again"},
		},
	}
	m, store := newTVMapper(t, fake)
	ctx := t.Context()

	// A persisted decision pins the 2015 series; no 409 on later plans.
	if err := store.PutDecision(ctx, cachestore.Decision{
		Scope: "tv", TitleNorm: "danger mouse", Year: cachestore.YearUnknown,
		Provider: "tvdb", ExtID: "311900", DecidedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	file := media.MediaFile{
		Path: "/tv/Danger Mouse-S01E01-Danger Mouse Begins Again.mp4",
		Type: media.TypeTV, Title: "Danger Mouse", Season: 1, Episode: 1,
	}
	result, err := m.MapFile(ctx, tvSnapshot(file), &file, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Disambiguation != nil {
		t.Fatal("decision did not suppress disambiguation")
	}
	candidate := result.Candidates[0]
	if candidate.Sources[0].ID != "311900" {
		t.Fatalf("sources = %+v", candidate.Sources)
	}
	if candidate.Dst.Path == "" || candidate.Confidence != 1.0 {
		t.Fatalf("candidate = %+v", candidate)
	}
}

func TestMapTVExplicitPinBypassesLedger(t *testing.T) {
	fake := &fakeTVDB{
		candidates: []providers.Candidate{
			{Provider: "tvdb", ID: "70325", Title: "Danger Mouse", Year: 1981},
			{Provider: "tvdb", ID: "311900", Title: "Danger Mouse (2015)", Year: 2015},
		},
		episodes: []providers.EpisodeInfo{{Season: 1, Episode: 1, Title: "Danger Mouse Begins Again"}},
	}
	m, _ := newTVMapper(t, fake)

	file := media.MediaFile{
		Path: "/tv/Danger Mouse-S01E01-Danger Mouse Begins Again.mp4",
		Type: media.TypeTV, Title: "Danger Mouse", Season: 1, Episode: 1,
	}
	result, err := m.MapFile(t.Context(), tvSnapshot(file), &file, &Pin{Provider: "tvdb", ExtID: "311900"})
	if err != nil {
		t.Fatal(err)
	}
	if result.Disambiguation != nil {
		t.Fatal("pin did not bypass disambiguation")
	}
	if result.Candidates[0].Sources[0].ID != "311900" {
		t.Fatalf("sources = %+v", result.Candidates[0].Sources)
	}
}

func TestMapTVOfflineDegradesToReview(t *testing.T) {
	store := testsupport.OpenStore(t)
	cfg := testsupport.NewConfig(t, testsupport.WithOffline())
	logger := logging.NewNop()
	gateway := providers.NewGateway(store, cfg, logger, nil)
	m := New(store, gateway, disambig.NewLedger(store, logger), anthology.NewResolver(nil, logger), logger)

	file := media.MediaFile{
		Path: "/tv/Show-S01E01-Pilot.mp4",
		Type: media.TypeTV, Title: "Show", Season: 1, Episode: 1,
	}
	result, err := m.MapFile(t.Context(), tvSnapshot(file), &file, nil)
	if err != nil {
		t.Fatalf("offline must not fail the file: %v", err)
	}
	candidate := result.Candidates[0]
	if candidate.Dst.Path != file.Path {
		t.Fatalf("offline review should leave dst unchanged: %+v", candidate)
	}
	found := false
	for _, warning := range candidate.Warnings {
		if warning == "needs_review" {
			found = true
		}
	}
	if !found {
		t.Fatalf("warnings = %v", candidate.Warnings)
	}
}

func TestCleanEntityTitle(t *testing.T) {
	title, year := cleanEntityTitle("Danger Mouse (2015)", 0)
	if title != "Danger Mouse" || year != 2015 {
		t.Fatalf("got %q, %d", title, year)
	}
	title, year = cleanEntityTitle("Bluey", 2018)
	if title != "Bluey" || year != 2018 {
		t.Fatalf("got %q, %d", title, year)
	}
}
