package anthology

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services/ollama"
)

const groupingSystemPrompt = `You group TV episode segments against a canonical episode list.
You are given parsed filename segments, the deterministic grouping attempt, and the canonical episodes for the season.
Respond with JSON only, in the shape {"groups":[{"season":1,"episodes":[1,2],"titles":["..."],"confidence":0.95}]}.
Rules: every episode number must come from the canonical list; episodes within a group must be contiguous and ascending; titles must be the canonical titles for those episodes, in order; confidence is between 0 and 1.
Never invent episodes or titles that are not in the canonical list.`

// Completer is the LLM surface the resolver needs; satisfied by
// *ollama.Client.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

var _ Completer = (*ollama.Client)(nil)

// Resolver couples the deterministic pass with the optional LLM assist.
type Resolver struct {
	llm    Completer
	logger *slog.Logger
}

// NewResolver builds a resolver. A nil completer disables the assist; the
// deterministic result then stands alone with an llm_unavailable warning
// whenever assistance would have been consulted.
func NewResolver(llm Completer, logger *slog.Logger) *Resolver {
	return &Resolver{llm: llm, logger: logging.NewComponentLogger(logger, "anthology")}
}

// Resolve runs the deterministic pass and, only on residual ambiguity,
// consults the LLM. Schema-violating output is rejected and the
// deterministic result is returned with an llm_unavailable warning.
func (r *Resolver) Resolve(ctx context.Context, file *media.MediaFile, episodes []providers.EpisodeInfo) Result {
	result := Deterministic(file, episodes)
	if !result.NeedsAssist {
		return result
	}
	if r.llm == nil {
		result.Warnings = appendUnique(result.Warnings, WarnLLMUnavailable)
		return result
	}

	canonical := buildCanonical(episodes, file.Season)
	payload, err := r.llm.CompleteJSON(ctx, groupingSystemPrompt, buildAssistPrompt(file, result, canonical))
	if err != nil {
		r.logger.Warn("llm assist unavailable", logging.Error(err))
		result.Warnings = appendUnique(result.Warnings, WarnLLMUnavailable)
		return result
	}

	groups, err := parseAssistOutput(payload, canonical, file.Season)
	if err != nil {
		r.logger.Warn("llm assist output rejected", logging.Error(err))
		result.Warnings = appendUnique(result.Warnings, WarnLLMUnavailable)
		return result
	}

	result.LLMGroups = groups
	result.LLMUsed = true
	return result
}

func buildAssistPrompt(file *media.MediaFile, deterministic Result, canonical []Canonical) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\nSeason: %d\n\nSegments:\n", file.Path, file.Season)
	for _, segment := range file.Segments {
		fmt.Fprintf(&b, "- interval [%d,%d] title tokens: %s\n", segment.Start, segment.End, strings.Join(segment.TitleTokens, " "))
	}
	b.WriteString("\nDeterministic grouping attempt:\n")
	for _, group := range deterministic.Groups {
		fmt.Fprintf(&b, "- episodes %v titles %v warnings %v\n", group.Episodes, group.Titles, group.Warnings)
	}
	b.WriteString("\nCanonical episodes:\n")
	for _, ep := range canonical {
		fmt.Fprintf(&b, "- E%02d: %s\n", ep.Number, ep.Title)
	}
	return b.String()
}

type assistPayload struct {
	Groups []struct {
		Season     int      `json:"season"`
		Episodes   []int    `json:"episodes"`
		Titles     []string `json:"titles"`
		Confidence float64  `json:"confidence"`
	} `json:"groups"`
}

// parseAssistOutput validates the LLM response against the grouping schema:
// known episode numbers, contiguous ascending runs, canonical titles, and
// confidence in [0,1]. Any violation rejects the whole payload.
func parseAssistOutput(payload string, canonical []Canonical, season int) ([]Group, error) {
	decoder := json.NewDecoder(strings.NewReader(payload))
	decoder.DisallowUnknownFields()
	var parsed assistPayload
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode assist payload: %w", err)
	}
	if len(parsed.Groups) == 0 {
		return nil, fmt.Errorf("assist payload has no groups")
	}

	groups := make([]Group, 0, len(parsed.Groups))
	for i, raw := range parsed.Groups {
		if len(raw.Episodes) == 0 {
			return nil, fmt.Errorf("group %d: empty episodes", i)
		}
		if len(raw.Titles) != len(raw.Episodes) {
			return nil, fmt.Errorf("group %d: %d titles for %d episodes", i, len(raw.Titles), len(raw.Episodes))
		}
		if raw.Confidence < 0 || raw.Confidence > 1 {
			return nil, fmt.Errorf("group %d: confidence %v out of range", i, raw.Confidence)
		}
		if raw.Season != 0 && raw.Season != season {
			return nil, fmt.Errorf("group %d: season %d outside resolution scope", i, raw.Season)
		}
		if !sort.IntsAreSorted(raw.Episodes) {
			return nil, fmt.Errorf("group %d: episodes not ascending", i)
		}
		for j, number := range raw.Episodes {
			if j > 0 && number != raw.Episodes[j-1]+1 {
				return nil, fmt.Errorf("group %d: episodes not contiguous", i)
			}
			idx := canonicalIndex(canonical, number)
			if idx < 0 {
				return nil, fmt.Errorf("group %d: episode %d not canonical", i, number)
			}
			if canonical[idx].Title != raw.Titles[j] {
				return nil, fmt.Errorf("group %d: title %q is not the canonical title of E%02d", i, raw.Titles[j], number)
			}
		}
		groups = append(groups, Group{
			Season:     season,
			Episodes:   raw.Episodes,
			Titles:     raw.Titles,
			Confidence: raw.Confidence,
		})
	}
	return groups, nil
}
