package anthology

import (
	"sort"

	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers"
)

// Deterministic runs the interval-algebraic pass. Given identical inputs the
// output is byte-identical: every step iterates slices in sorted order.
func Deterministic(file *media.MediaFile, episodes []providers.EpisodeInfo) Result {
	canonical := buildCanonical(episodes, file.Season)
	if len(canonical) == 0 {
		return fallbackResult(file)
	}
	moniker := seasonMoniker(canonical)

	segments := normalizeSegments(file.Segments)
	var resultWarnings []string
	if clampSegments(segments, canonical) {
		resultWarnings = appendUnique(resultWarnings, WarnOutOfBounds)
	}

	// Content assignment: each segment's token stream is matched against a
	// run of canonical titles anchored at its declared start.
	groups := make([]Group, 0, len(segments))
	var leftoverPool []string
	monikerStrippedAny := false
	for _, segment := range segments {
		group, leftover, usedMoniker := assignSegment(segment, canonical, moniker, file.Season)
		monikerStrippedAny = monikerStrippedAny || usedMoniker
		leftoverPool = append(leftoverPool, leftover...)
		groups = append(groups, group)
	}
	if monikerStrippedAny {
		for i := range groups {
			groups[i].Warnings = appendUnique(groups[i].Warnings, WarnPrefixMonikerStripped)
		}
	}

	groups = resolveOverlaps(groups, canonical, moniker)
	groups, gapWarn := fillGaps(groups, canonical, leftoverPool, file.Season)
	if gapWarn {
		resultWarnings = appendUnique(resultWarnings, WarnGapPresent)
	}

	// Confidence per group from its distinct warning classes.
	for i := range groups {
		classes := len(groups[i].Warnings)
		if gapWarn {
			classes++
		}
		if containsWarning(resultWarnings, WarnOutOfBounds) {
			classes++
		}
		groups[i].Confidence = deduct(1.0, classes)
	}

	result := Result{Groups: groups, Warnings: resultWarnings}
	result.MinConfidence = 1.0
	unresolved := false
	for _, group := range groups {
		if group.Confidence < result.MinConfidence {
			result.MinConfidence = group.Confidence
		}
		for _, warning := range group.Warnings {
			result.Warnings = appendUnique(result.Warnings, warning)
			if warning == WarnOverlapUnresolved {
				unresolved = true
			}
		}
	}
	if len(groups) == 0 {
		result.MinConfidence = 0.2
	}
	result.NeedsAssist = unresolved || gapWarn || result.MinConfidence < 0.9
	return result
}

// fallbackResult covers the no-canonical-data case: declared intervals pass
// through with a low-match warning so the item lands in review.
func fallbackResult(file *media.MediaFile) Result {
	var groups []Group
	for _, segment := range normalizeSegments(file.Segments) {
		group := Group{Season: file.Season, Warnings: []string{WarnTitleLowMatch}}
		for ep := segment.Start; ep <= segment.End; ep++ {
			group.Episodes = append(group.Episodes, ep)
		}
		group.Confidence = deduct(1.0, 1)
		groups = append(groups, group)
	}
	return Result{
		Groups:        groups,
		Warnings:      []string{WarnTitleLowMatch},
		MinConfidence: deduct(1.0, 1),
		NeedsAssist:   true,
	}
}

// normalizeSegments sorts by start and coerces start ≤ end.
func normalizeSegments(segments []media.Segment) []media.Segment {
	normalized := make([]media.Segment, len(segments))
	copy(normalized, segments)
	for i := range normalized {
		if normalized[i].End == 0 {
			normalized[i].End = normalized[i].Start
		}
		if normalized[i].End < normalized[i].Start {
			normalized[i].Start, normalized[i].End = normalized[i].End, normalized[i].Start
		}
	}
	sort.SliceStable(normalized, func(i, j int) bool {
		if normalized[i].Start != normalized[j].Start {
			return normalized[i].Start < normalized[j].Start
		}
		return normalized[i].End < normalized[j].End
	})
	return normalized
}

// clampSegments clamps declared intervals to the canonical season bounds.
func clampSegments(segments []media.Segment, canonical []Canonical) bool {
	lower := canonical[0].Number
	upper := canonical[len(canonical)-1].Number
	changed := false
	for i := range segments {
		if segments[i].Start < lower {
			segments[i].Start = lower
			changed = true
		}
		if segments[i].End > upper {
			segments[i].End = upper
			changed = true
		}
		if segments[i].End < segments[i].Start {
			segments[i].End = segments[i].Start
		}
	}
	return changed
}

// assignSegment maps one segment to a group. Returns leftover tokens that
// matched nothing (fuel for gap filling).
func assignSegment(segment media.Segment, canonical []Canonical, moniker []string, season int) (Group, []string, bool) {
	group := Group{Season: season}
	usedMoniker := false
	if len(moniker) > 0 {
		if _, ok := stripMoniker(segment.TitleTokens, moniker); ok {
			usedMoniker = true
		}
	}

	run := matchRun(segment.TitleTokens, canonical, moniker, segment.Start)
	switch {
	case run.matched:
		matchedEnd := run.episodes[len(run.episodes)-1]
		if matchedEnd < segment.End {
			// Singleton collapse: a multi-episode interval whose single title
			// matches only its first episode shrinks to that episode when the
			// match is strong; a weaker match keeps the declared interval
			// uncorroborated.
			if len(run.episodes) == 1 && run.firstScore >= thresholdSingleton {
				group.Episodes = run.episodes
				group.Titles = run.titles
				break
			}
			group.Episodes, group.Titles = extendToDeclared(run, canonical, segment.End)
			group.Warnings = appendUnique(group.Warnings, WarnLowTokenOverlap)
			break
		}
		group.Episodes = run.episodes
		group.Titles = run.titles
	case len(run.episodes) > 0:
		// Partial match: keep what matched, flag the rest.
		group.Episodes = run.episodes
		group.Titles = run.titles
		group.Warnings = appendUnique(group.Warnings, WarnTitleLowMatch)
	default:
		// No title corroboration: accept the declared interval with canonical
		// titles where known.
		for ep := segment.Start; ep <= segment.End; ep++ {
			group.Episodes = append(group.Episodes, ep)
			if idx := canonicalIndex(canonical, ep); idx >= 0 {
				group.Titles = append(group.Titles, canonical[idx].Title)
			}
		}
		if len(segment.TitleTokens) > 0 {
			group.Warnings = appendUnique(group.Warnings, WarnTitleLowMatch)
		} else {
			group.Warnings = appendUnique(group.Warnings, WarnLowTokenOverlap)
		}
	}
	return group, run.leftover, usedMoniker
}

// extendToDeclared pads a matched run out to the declared end using
// canonical titles.
func extendToDeclared(run assignment, canonical []Canonical, declaredEnd int) ([]int, []string) {
	episodes := append([]int(nil), run.episodes...)
	titles := append([]string(nil), run.titles...)
	for ep := episodes[len(episodes)-1] + 1; ep <= declaredEnd; ep++ {
		episodes = append(episodes, ep)
		if idx := canonicalIndex(canonical, ep); idx >= 0 {
			titles = append(titles, canonical[idx].Title)
		}
	}
	return episodes, titles
}

// resolveOverlaps truncates overlapping adjacent groups. When the second
// group's leading episode is corroborated by a high title match at its start,
// the first group yields; otherwise the second is trimmed forward. Overlaps
// that survive both rules are flagged unresolved.
func resolveOverlaps(groups []Group, canonical []Canonical, moniker []string) []Group {
	for i := 0; i+1 < len(groups); i++ {
		first, second := &groups[i], &groups[i+1]
		if len(first.Episodes) == 0 || len(second.Episodes) == 0 {
			continue
		}
		b, c := first.End(), second.Start()
		if c > b {
			continue
		}
		secondAnchored := len(second.Titles) > 0 && scoreFirstTitle(second, canonical, moniker) >= thresholdMatch
		if secondAnchored && c-1 >= first.Start() {
			truncateEnd(first, c-1)
			continue
		}
		if b+1 <= second.End() {
			truncateStart(second, b+1)
			continue
		}
		first.Warnings = appendUnique(first.Warnings, WarnOverlapUnresolved)
		second.Warnings = appendUnique(second.Warnings, WarnOverlapUnresolved)
	}
	return groups
}

func scoreFirstTitle(group *Group, canonical []Canonical, moniker []string) float64 {
	if len(group.Titles) == 0 || len(group.Episodes) == 0 {
		return 0
	}
	idx := canonicalIndex(canonical, group.Episodes[0])
	if idx < 0 {
		return 0
	}
	// Groups built by matchRun already carry canonical titles, so a direct
	// comparison against the canonical entry scores the anchor.
	return scoreAgainst(tokensOf(group.Titles[0]), canonical, moniker, group.Episodes[0])
}

// truncateEnd drops episodes above limit from the group.
func truncateEnd(group *Group, limit int) {
	var episodes []int
	var titles []string
	for i, ep := range group.Episodes {
		if ep > limit {
			break
		}
		episodes = append(episodes, ep)
		if i < len(group.Titles) {
			titles = append(titles, group.Titles[i])
		}
	}
	group.Episodes = episodes
	group.Titles = titles
}

// truncateStart drops episodes below limit from the group.
func truncateStart(group *Group, limit int) {
	var episodes []int
	var titles []string
	for i, ep := range group.Episodes {
		if ep < limit {
			continue
		}
		episodes = append(episodes, ep)
		if i < len(group.Titles) {
			titles = append(titles, group.Titles[i])
		}
	}
	group.Episodes = episodes
	group.Titles = titles
}

// fillGaps inspects adjacent groups for coverage holes. A single-episode
// hole whose canonical title matches leftover tokens is inserted as its own
// group; anything else flags the gap.
func fillGaps(groups []Group, canonical []Canonical, leftover []string, season int) ([]Group, bool) {
	gapFound := false
	var output []Group
	for i, group := range groups {
		output = append(output, group)
		if i+1 >= len(groups) {
			break
		}
		b, c := group.End(), groups[i+1].Start()
		if b == 0 || c == 0 || c <= b+1 {
			continue
		}
		var inside []Canonical
		for _, ep := range canonical {
			if ep.Number > b && ep.Number < c {
				inside = append(inside, ep)
			}
		}
		if len(inside) == 1 && len(leftover) > 0 && scoreAgainst(leftover, canonical, nil, inside[0].Number) >= thresholdMatch {
			output = append(output, Group{
				Season:   season,
				Episodes: []int{inside[0].Number},
				Titles:   []string{inside[0].Title},
			})
			continue
		}
		gapFound = true
	}
	return output, gapFound
}

func containsWarning(list []string, value string) bool {
	for _, existing := range list {
		if existing == value {
			return true
		}
	}
	return false
}
