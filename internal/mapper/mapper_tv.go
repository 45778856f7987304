package mapper

import (
	"context"
	"errors"
	"fmt"

	"github.com/DouglasMacKrell/namegnome-serve/internal/anthology"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/namer"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func (m *Mapper) mapTV(ctx context.Context, snapshot *media.ScanSnapshot, file *media.MediaFile, pin *Pin) (*FileResult, error) {
	result := &FileResult{File: file}
	if file.Title == "" {
		result.Candidates = append(result.Candidates, reviewCandidate(file, "title_unparsed"))
		return result, nil
	}

	entity, pending, err := m.resolveEntity(ctx, snapshot, providers.KindSeries, "series", file.Title, file.Year, pin)
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

	showTitle, showYear := cleanEntityTitle(entity.Title, entity.Year)
	episodes, err := m.gateway.Episodes(ctx, entity.Provider, entity.ID)
	if err != nil {
		if errors.Is(err, services.ErrProviderUnavailable) {
			result.Candidates = append(result.Candidates, reviewCandidate(file, "provider_unavailable"))
			return result, nil
		}
		return nil, err
	}

	sources := []plan.SourceRef{{Provider: entity.Provider, ID: entity.ID, Type: "episode"}}
	if file.AnthologyCandidate {
		m.mapTVAnthology(ctx, snapshot, file, showTitle, showYear, sources, episodes, result)
		return result, nil
	}

	m.mapTVExact(snapshot, file, showTitle, showYear, sources, episodes, result)
	return result, nil
}

// mapTVExact handles the non-anthology path: declared (season, episode)
// numbers match canonical episodes directly.
func (m *Mapper) mapTVExact(snapshot *media.ScanSnapshot, file *media.MediaFile, showTitle string, showYear int, sources []plan.SourceRef, episodes []providers.EpisodeInfo, result *FileResult) {
	if !file.HasEpisodeNumbers() {
		result.Candidates = append(result.Candidates, reviewCandidate(file, "episode_numbers_missing"))
		return
	}

	end := file.EpisodeEnd
	if end == 0 {
		end = file.Episode
	}
	var numbers []int
	var titles []string
	missing := false
	for ep := file.Episode; ep <= end; ep++ {
		numbers = append(numbers, ep)
		if title, ok := episodeTitle(episodes, file.Season, ep); ok {
			titles = append(titles, title)
		} else {
			missing = true
		}
	}

	confidence := 1.0
	var warnings []string
	if missing {
		confidence = 0.5
		warnings = append(warnings, "episode_not_in_provider")
		if file.EpisodeTitle != "" {
			titles = []string{file.EpisodeTitle}
		}
	}

	dstPath, err := namer.TVPath(snapshot.Root, showTitle, showYear, file.Season, numbers, titles, ext(file.Path))
	if err != nil {
		m.logger.Warn("tv path construction failed", logging.String("path", file.Path), logging.Error(err))
		result.Candidates = append(result.Candidates, reviewCandidate(file, "naming_failed"))
		return
	}

	result.Candidates = append(result.Candidates, Candidate{
		Origin:     plan.OriginDeterministic,
		Confidence: confidence,
		Src:        plan.Src{Path: file.Path},
		Dst: plan.Dst{
			Path:    dstPath,
			Episode: &plan.EpisodeMeta{Season: file.Season, Episodes: numbers, Titles: titles},
		},
		Sources:  sources,
		Warnings: warnings,
	})
}

// mapTVAnthology forwards the file to the anthology resolver and converts
// each resulting group (deterministic and, when consulted, LLM) into a
// candidate.
func (m *Mapper) mapTVAnthology(ctx context.Context, snapshot *media.ScanSnapshot, file *media.MediaFile, showTitle string, showYear int, sources []plan.SourceRef, episodes []providers.EpisodeInfo, result *FileResult) {
	resolution := m.resolver.Resolve(ctx, file, episodes)

	appendGroups := func(groups []anthology.Group, origin plan.Origin, extraWarnings []string) {
		for _, group := range groups {
			if len(group.Episodes) == 0 {
				continue
			}
			warnings := append([]string(nil), group.Warnings...)
			for _, warning := range extraWarnings {
				warnings = appendUnique(warnings, warning)
			}
			dstPath, err := namer.TVPath(snapshot.Root, showTitle, showYear, group.Season, group.Episodes, group.Titles, ext(file.Path))
			if err != nil {
				m.logger.Warn("anthology path construction failed",
					logging.String("path", file.Path), logging.Error(err))
				continue
			}
			result.Candidates = append(result.Candidates, Candidate{
				Origin:     origin,
				Confidence: group.Confidence,
				Src: plan.Src{
					Path:    file.Path,
					Segment: fmt.Sprintf("E%02d-E%02d", group.Start(), group.End()),
				},
				Dst: plan.Dst{
					Path:    dstPath,
					Episode: &plan.EpisodeMeta{Season: group.Season, Episodes: group.Episodes, Titles: group.Titles},
				},
				Sources:   sources,
				Warnings:  warnings,
				Anthology: true,
			})
		}
	}

	appendGroups(resolution.Groups, plan.OriginDeterministic, resolution.Warnings)
	if resolution.LLMUsed {
		appendGroups(resolution.LLMGroups, plan.OriginLLM, nil)
	}
	if len(result.Candidates) == 0 {
		result.Candidates = append(result.Candidates, reviewCandidate(file, "anthology_unresolved"))
	}
}

func episodeTitle(episodes []providers.EpisodeInfo, season, episode int) (string, bool) {
	for _, ep := range episodes {
		if ep.Season == season && ep.Episode == episode {
			return ep.Title, true
		}
	}
	return "", false
}
