package providers

import (
	"context"
	"errors"
	"strconv"

	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/musicbrainz"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/omdb"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/tmdb"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/tvdb"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers/tvmaze"
)

// TVDBAdapter exposes the TVDB client through the gateway contract.
type TVDBAdapter struct {
	Client *tvdb.Client
}

func (a *TVDBAdapter) Name() string { return "tvdb" }

func (a *TVDBAdapter) Search(ctx context.Context, kind Kind, query string, year int) ([]Candidate, error) {
	if kind != KindSeries {
		return nil, ErrUnsupported
	}
	results, err := a.Client.SearchSeries(ctx, query, year)
	if err != nil {
		return nil, wrapTVDBErr(err)
	}
	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		resultYear := 0
		if parsed, convErr := strconv.Atoi(res.Year); convErr == nil {
			resultYear = parsed
		}
		candidates = append(candidates, Candidate{
			Provider: "tvdb",
			ID:       res.TVDBID,
			Title:    res.Name,
			Year:     resultYear,
		})
	}
	return candidates, nil
}

func (a *TVDBAdapter) Fetch(ctx context.Context, kind Kind, id string) (*Detail, error) {
	if kind != KindSeries {
		return nil, ErrUnsupported
	}
	series, err := a.Client.GetSeries(ctx, id)
	if err != nil {
		return nil, wrapTVDBErr(err)
	}
	year := 0
	if parsed, convErr := strconv.Atoi(series.Year); convErr == nil {
		year = parsed
	}
	return &Detail{Provider: "tvdb", Kind: KindSeries, ID: id, Title: series.Name, Year: year}, nil
}

func (a *TVDBAdapter) ListEpisodes(ctx context.Context, seriesID string) ([]EpisodeInfo, error) {
	episodes, err := a.Client.GetSeriesEpisodes(ctx, seriesID)
	if err != nil {
		return nil, wrapTVDBErr(err)
	}
	infos := make([]EpisodeInfo, 0, len(episodes))
	for _, ep := range episodes {
		infos = append(infos, EpisodeInfo{
			Season:  ep.SeasonNumber,
			Episode: ep.Number,
			Title:   ep.Name,
			AirDate: ep.Aired,
		})
	}
	return infos, nil
}

func (a *TVDBAdapter) ListTracks(context.Context, string) ([]TrackInfo, error) {
	return nil, ErrUnsupported
}

func wrapTVDBErr(err error) error {
	var statusErr *tvdb.StatusError
	if errors.As(err, &statusErr) {
		return &HTTPError{Provider: "tvdb", StatusCode: statusErr.StatusCode, RetryAfter: statusErr.RetryAfter, Err: err}
	}
	return err
}

// TMDBAdapter exposes the TMDB client through the gateway contract. It serves
// movies primarily and series as a secondary source.
type TMDBAdapter struct {
	Client *tmdb.Client
}

func (a *TMDBAdapter) Name() string { return "tmdb" }

func (a *TMDBAdapter) Search(ctx context.Context, kind Kind, query string, year int) ([]Candidate, error) {
	var resp *tmdb.Response
	var err error
	switch kind {
	case KindMovie:
		resp, err = a.Client.SearchMovie(ctx, query, year)
	case KindSeries:
		resp, err = a.Client.SearchTV(ctx, query, year)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, wrapTMDBErr(err)
	}
	candidates := make([]Candidate, 0, len(resp.Results))
	for _, res := range resp.Results {
		candidates = append(candidates, Candidate{
			Provider: "tmdb",
			ID:       strconv.FormatInt(res.ID, 10),
			Title:    res.DisplayTitle(),
			Year:     res.Year(),
		})
	}
	return candidates, nil
}

func (a *TMDBAdapter) Fetch(ctx context.Context, kind Kind, id string) (*Detail, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, &HTTPError{Provider: "tmdb", StatusCode: 404, Err: err}
	}
	var res *tmdb.Result
	switch kind {
	case KindMovie:
		res, err = a.Client.GetMovieDetails(ctx, numericID)
	case KindSeries:
		res, err = a.Client.GetTVDetails(ctx, numericID)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, wrapTMDBErr(err)
	}
	return &Detail{Provider: "tmdb", Kind: kind, ID: id, Title: res.DisplayTitle(), Year: res.Year()}, nil
}

// ListEpisodes walks seasons until TMDB reports the season missing.
func (a *TMDBAdapter) ListEpisodes(ctx context.Context, seriesID string) ([]EpisodeInfo, error) {
	numericID, err := strconv.ParseInt(seriesID, 10, 64)
	if err != nil {
		return nil, &HTTPError{Provider: "tmdb", StatusCode: 404, Err: err}
	}
	var infos []EpisodeInfo
	for season := 1; ; season++ {
		details, err := a.Client.GetSeasonDetails(ctx, numericID, season)
		if err != nil {
			var statusErr *tmdb.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == 404 {
				break
			}
			return nil, wrapTMDBErr(err)
		}
		if len(details.Episodes) == 0 {
			break
		}
		for _, ep := range details.Episodes {
			infos = append(infos, EpisodeInfo{
				Season:  ep.SeasonNumber,
				Episode: ep.EpisodeNumber,
				Title:   ep.Name,
				AirDate: ep.AirDate,
			})
		}
	}
	return infos, nil
}

func (a *TMDBAdapter) ListTracks(context.Context, string) ([]TrackInfo, error) {
	return nil, ErrUnsupported
}

func wrapTMDBErr(err error) error {
	var statusErr *tmdb.StatusError
	if errors.As(err, &statusErr) {
		return &HTTPError{Provider: "tmdb", StatusCode: statusErr.StatusCode, RetryAfter: statusErr.RetryAfter, Err: err}
	}
	return err
}

// MusicBrainzAdapter exposes the MusicBrainz client through the gateway contract.
type MusicBrainzAdapter struct {
	Client *musicbrainz.Client
}

func (a *MusicBrainzAdapter) Name() string { return "musicbrainz" }

func (a *MusicBrainzAdapter) Search(ctx context.Context, kind Kind, query string, year int) ([]Candidate, error) {
	switch kind {
	case KindArtist:
		artists, err := a.Client.SearchArtist(ctx, query)
		if err != nil {
			return nil, wrapMBErr(err)
		}
		candidates := make([]Candidate, 0, len(artists))
		for _, artist := range artists {
			candidates = append(candidates, Candidate{Provider: "musicbrainz", ID: artist.ID, Title: artist.Name})
		}
		return candidates, nil
	case KindAlbum:
		groups, err := a.Client.SearchReleaseGroup(ctx, query, "")
		if err != nil {
			return nil, wrapMBErr(err)
		}
		candidates := make([]Candidate, 0, len(groups))
		for _, group := range groups {
			if year > 0 && group.Year() != 0 && group.Year() != year {
				continue
			}
			candidates = append(candidates, Candidate{Provider: "musicbrainz", ID: group.ID, Title: group.Title, Year: group.Year()})
		}
		return candidates, nil
	default:
		return nil, ErrUnsupported
	}
}

func (a *MusicBrainzAdapter) Fetch(ctx context.Context, kind Kind, id string) (*Detail, error) {
	// MusicBrainz search results already carry the fields planning needs.
	return &Detail{Provider: "musicbrainz", Kind: kind, ID: id}, nil
}

func (a *MusicBrainzAdapter) ListEpisodes(context.Context, string) ([]EpisodeInfo, error) {
	return nil, ErrUnsupported
}

func (a *MusicBrainzAdapter) ListTracks(ctx context.Context, albumID string) ([]TrackInfo, error) {
	tracks, err := a.Client.GetReleaseGroupTracks(ctx, albumID)
	if err != nil {
		return nil, wrapMBErr(err)
	}
	infos := make([]TrackInfo, 0, len(tracks))
	for _, track := range tracks {
		infos = append(infos, TrackInfo{Disc: track.Disc, Track: track.Position, Title: track.Title})
	}
	return infos, nil
}

func wrapMBErr(err error) error {
	var statusErr *musicbrainz.StatusError
	if errors.As(err, &statusErr) {
		return &HTTPError{Provider: "musicbrainz", StatusCode: statusErr.StatusCode, Err: err}
	}
	return err
}

// OMDBAdapter is a movie search fallback; it cannot fetch details or children.
type OMDBAdapter struct {
	Client *omdb.Client
}

func (a *OMDBAdapter) Name() string { return "omdb" }

func (a *OMDBAdapter) Search(ctx context.Context, kind Kind, query string, year int) ([]Candidate, error) {
	if kind != KindMovie {
		return nil, ErrUnsupported
	}
	results, err := a.Client.SearchMovies(ctx, query, year)
	if err != nil {
		var statusErr *omdb.StatusError
		if errors.As(err, &statusErr) {
			return nil, &HTTPError{Provider: "omdb", StatusCode: statusErr.StatusCode, Err: err}
		}
		return nil, err
	}
	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		candidates = append(candidates, Candidate{Provider: "omdb", ID: res.IMDBID, Title: res.Title, Year: res.YearInt()})
	}
	return candidates, nil
}

func (a *OMDBAdapter) Fetch(context.Context, Kind, string) (*Detail, error) {
	return nil, ErrUnsupported
}

func (a *OMDBAdapter) ListEpisodes(context.Context, string) ([]EpisodeInfo, error) {
	return nil, ErrUnsupported
}

func (a *OMDBAdapter) ListTracks(context.Context, string) ([]TrackInfo, error) {
	return nil, ErrUnsupported
}

// TVmazeAdapter is a TV search fallback with episode listings.
type TVmazeAdapter struct {
	Client *tvmaze.Client
}

func (a *TVmazeAdapter) Name() string { return "tvmaze" }

func (a *TVmazeAdapter) Search(ctx context.Context, kind Kind, query string, year int) ([]Candidate, error) {
	if kind != KindSeries {
		return nil, ErrUnsupported
	}
	results, err := a.Client.SearchShows(ctx, query)
	if err != nil {
		return nil, wrapTVmazeErr(err)
	}
	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		if year > 0 && res.Show.Year() != 0 && res.Show.Year() != year {
			continue
		}
		candidates = append(candidates, Candidate{
			Provider: "tvmaze",
			ID:       strconv.FormatInt(res.Show.ID, 10),
			Title:    res.Show.Name,
			Year:     res.Show.Year(),
		})
	}
	return candidates, nil
}

func (a *TVmazeAdapter) Fetch(context.Context, Kind, string) (*Detail, error) {
	return nil, ErrUnsupported
}

func (a *TVmazeAdapter) ListEpisodes(ctx context.Context, seriesID string) ([]EpisodeInfo, error) {
	numericID, err := strconv.ParseInt(seriesID, 10, 64)
	if err != nil {
		return nil, &HTTPError{Provider: "tvmaze", StatusCode: 404, Err: err}
	}
	episodes, err := a.Client.GetShowEpisodes(ctx, numericID)
	if err != nil {
		return nil, wrapTVmazeErr(err)
	}
	infos := make([]EpisodeInfo, 0, len(episodes))
	for _, ep := range episodes {
		infos = append(infos, EpisodeInfo{Season: ep.Season, Episode: ep.Number, Title: ep.Name, AirDate: ep.Airdate})
	}
	return infos, nil
}

func (a *TVmazeAdapter) ListTracks(context.Context, string) ([]TrackInfo, error) {
	return nil, ErrUnsupported
}

func wrapTVmazeErr(err error) error {
	var statusErr *tvmaze.StatusError
	if errors.As(err, &statusErr) {
		return &HTTPError{Provider: "tvmaze", StatusCode: statusErr.StatusCode, Err: err}
	}
	return err
}
