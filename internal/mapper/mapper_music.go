package mapper

import (
	"context"
	"errors"

	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/namer"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func (m *Mapper) mapMusic(ctx context.Context, snapshot *media.ScanSnapshot, file *media.MediaFile, pin *Pin) (*FileResult, error) {
	result := &FileResult{File: file}
	if file.Artist == "" || file.Album == "" {
		result.Candidates = append(result.Candidates, reviewCandidate(file, "artist_or_album_unparsed"))
		return result, nil
	}

	// Artist resolution supplies the artist name for the path; the album
	// search below is by album title and year and is not scoped to the artist.
	artist, pending, err := m.resolveEntity(ctx, snapshot, providers.KindArtist, "artist", file.Artist, 0, pin)
	if err != nil {
		if errors.Is(err, services.ErrProviderUnavailable) {
			result.Candidates = append(result.Candidates, reviewCandidate(file, "provider_unavailable"))
			return result, nil
		}
		return nil, err
	}
	if pending != nil {
		result.Disambiguation = pending
		return result, nil
	}

	albums, err := m.gateway.Search(ctx, media.TypeMusic, providers.KindAlbum, file.Album, file.Year)
	if err != nil {
		if errors.Is(err, services.ErrProviderUnavailable) {
			result.Candidates = append(result.Candidates, reviewCandidate(file, "provider_unavailable"))
			return result, nil
		}
		return nil, err
	}
	albumCandidates := filterByYear(albums, file.Year)
	if len(albumCandidates) == 0 {
		result.Candidates = append(result.Candidates, reviewCandidate(file, "album_not_found"))
		return result, nil
	}
	album := albumCandidates[0]

	tracks, err := m.gateway.Tracks(ctx, album.Provider, album.ID)
	if err != nil {
		if errors.Is(err, services.ErrProviderUnavailable) {
			result.Candidates = append(result.Candidates, reviewCandidate(file, "provider_unavailable"))
			return result, nil
		}
		return nil, err
	}

	confidence := 1.0
	var warnings []string
	trackTitle := file.EpisodeTitle
	if info, ok := findTrack(tracks, file.Disc, file.Track); ok {
		trackTitle = info.Title
	} else {
		confidence = 0.5
		warnings = append(warnings, "track_not_in_provider")
	}

	albumTitle, albumYear := cleanEntityTitle(album.Title, album.Year)
	dstPath, err := namer.MusicPath(snapshot.Root, artist.Title, albumTitle, albumYear, file.Track, trackTitle, ext(file.Path))
	if err != nil {
		result.Candidates = append(result.Candidates, reviewCandidate(file, "naming_failed"))
		return result, nil
	}

	result.Candidates = append(result.Candidates, Candidate{
		Origin:     plan.OriginDeterministic,
		Confidence: confidence,
		Src:        plan.Src{Path: file.Path},
		Dst: plan.Dst{
			Path:  dstPath,
			Track: &plan.TrackMeta{Disc: file.Disc, Track: file.Track, Title: trackTitle},
		},
		Sources:  []plan.SourceRef{{Provider: album.Provider, ID: album.ID, Type: "track"}},
		Warnings: warnings,
	})
	return result, nil
}

func findTrack(tracks []providers.TrackInfo, disc, track int) (providers.TrackInfo, bool) {
	for _, info := range tracks {
		if info.Disc == disc && info.Track == track {
			return info, true
		}
	}
	return providers.TrackInfo{}, false
}
