package mapper

import (
	"context"
	"errors"

	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/namer"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
	"github.com/DouglasMacKrell/namegnome-serve/internal/textutil"
)

func (m *Mapper) mapMovie(ctx context.Context, snapshot *media.ScanSnapshot, file *media.MediaFile, pin *Pin) (*FileResult, error) {
	result := &FileResult{File: file}
	if file.Title == "" {
		result.Candidates = append(result.Candidates, reviewCandidate(file, "title_unparsed"))
		return result, nil
	}

	entity, pending, err := m.resolveEntity(ctx, snapshot, providers.KindMovie, "movie", file.Title, file.Year, pin)
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

	title, year := cleanEntityTitle(entity.Title, entity.Year)

	confidence := 1.0
	var warnings []string
	titleMatches := textutil.ScoreTitles(file.Title, title) >= 0.67
	switch {
	case titleMatches && file.Year > 0 && year == file.Year:
		confidence = 1.0
	case titleMatches && file.Year == 0:
		confidence = 0.9
	case titleMatches:
		confidence = 0.9
		warnings = append(warnings, "year_mismatch")
	default:
		confidence = 0.6
		warnings = append(warnings, "title_low_match")
	}

	dstPath, err := namer.MoviePath(snapshot.Root, title, year, ext(file.Path))
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
			Movie: &plan.MovieMeta{Title: title, Year: year},
		},
		Sources:  []plan.SourceRef{{Provider: entity.Provider, ID: entity.ID, Type: "movie"}},
		Warnings: warnings,
	})
	return result, nil
}
