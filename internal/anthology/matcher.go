package anthology

import (
	"sort"

	"github.com/DouglasMacKrell/namegnome-serve/internal/providers"
	"github.com/DouglasMacKrell/namegnome-serve/internal/textutil"
)

// buildCanonical filters the provider episode list to the season under
// resolution and returns it sorted by episode number. Episode numbers are
// unique within a season but need not be contiguous.
func buildCanonical(episodes []providers.EpisodeInfo, season int) []Canonical {
	var canonical []Canonical
	for _, ep := range episodes {
		if season > 0 && ep.Season != season {
			continue
		}
		canonical = append(canonical, Canonical{
			Number: ep.Episode,
			Title:  ep.Title,
			Tokens: textutil.Tokenize(ep.Title),
		})
	}
	sort.Slice(canonical, func(i, j int) bool { return canonical[i].Number < canonical[j].Number })
	return canonical
}

// canonicalIndex returns the position of episode number in the canonical
// slice, or -1.
func canonicalIndex(canonical []Canonical, number int) int {
	for i, ep := range canonical {
		if ep.Number == number {
			return i
		}
	}
	return -1
}

// seasonMoniker finds the longest leading token phrase (at most
// monikerMaxTokens) shared verbatim by at least two adjacent canonical
// episode titles, e.g. "Mighty Pups Charged Up". Returns nil when the season
// has no such moniker.
func seasonMoniker(canonical []Canonical) []string {
	best := []string(nil)
	for i := 0; i+1 < len(canonical); i++ {
		shared := commonPrefix(canonical[i].Tokens, canonical[i+1].Tokens)
		if len(shared) > monikerMaxTokens {
			shared = shared[:monikerMaxTokens]
		}
		// The moniker must leave a distinctive remainder on both titles.
		if len(shared) == 0 || len(shared) >= len(canonical[i].Tokens) || len(shared) >= len(canonical[i+1].Tokens) {
			continue
		}
		if len(shared) > len(best) {
			best = shared
		}
	}
	if len(best) < 2 {
		// Single-token prefixes ("pups", "the") are too common to be monikers.
		return nil
	}
	return best
}

func commonPrefix(a, b []string) []string {
	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}
	var shared []string
	for i := 0; i < limit; i++ {
		if a[i] != b[i] {
			break
		}
		shared = append(shared, a[i])
	}
	return shared
}

// stripMoniker removes a leading moniker phrase from tokens when present.
func stripMoniker(tokens, moniker []string) ([]string, bool) {
	if len(moniker) == 0 || len(tokens) <= len(moniker) {
		return tokens, false
	}
	for i, token := range moniker {
		if tokens[i] != token {
			return tokens, false
		}
	}
	return tokens[len(moniker):], true
}

// assignment is the outcome of matching one segment's token stream against a
// run of canonical episodes.
type assignment struct {
	episodes   []int
	titles     []string
	firstScore float64
	leftover   []string
	matched    bool
}

// matchRun greedily assigns the token stream to consecutive canonical
// episodes starting at startNumber. Each episode consumes the token window
// that scores best against its (moniker-stripped) canonical title; the run
// stops when the next window scores below the match threshold.
func matchRun(tokens []string, canonical []Canonical, moniker []string, startNumber int) assignment {
	start := canonicalIndex(canonical, startNumber)
	if start < 0 || len(tokens) == 0 {
		return assignment{leftover: tokens}
	}

	var result assignment
	pos := 0
	for idx := start; idx < len(canonical) && pos < len(tokens); idx++ {
		target, stripped := stripMoniker(canonical[idx].Tokens, moniker)
		if stripped {
			// The segment stream may carry the moniker once at its head.
			if remaining, ok := stripMoniker(tokens[pos:], moniker); ok {
				trimmed := len(tokens[pos:]) - len(remaining)
				pos += trimmed
			}
		}
		window, score := bestWindow(tokens[pos:], target)
		if score < thresholdMatch {
			break
		}
		if result.episodes == nil {
			result.firstScore = score
		}
		result.episodes = append(result.episodes, canonical[idx].Number)
		result.titles = append(result.titles, canonical[idx].Title)
		pos += window
	}
	result.leftover = tokens[pos:]
	result.matched = len(result.episodes) > 0 && len(result.leftover) == 0
	return result
}

// bestWindow finds the prefix window of stream that best matches target,
// trying sizes within ±2 of the target length. Ties prefer the window
// closest to the target length, then the shorter one.
func bestWindow(stream, target []string) (int, float64) {
	if len(stream) == 0 || len(target) == 0 {
		return 0, 0
	}
	low := len(target) - 2
	if low < 1 {
		low = 1
	}
	high := len(target) + 2
	if high > len(stream) {
		high = len(stream)
	}
	bestSize := 0
	bestScore := -1.0
	bestDist := 1 << 30
	for size := low; size <= high; size++ {
		score := textutil.OverlapScore(stream[:size], target)
		dist := size - len(target)
		if dist < 0 {
			dist = -dist
		}
		if score > bestScore || (score == bestScore && dist < bestDist) {
			bestScore = score
			bestSize = size
			bestDist = dist
		}
	}
	return bestSize, bestScore
}

func tokensOf(title string) []string { return textutil.Tokenize(title) }

// scoreAgainst scores tokens against the canonical episode numbered number.
// Ties elsewhere break toward the earlier canonical episode; this helper
// preserves that by being called in ascending episode order.
func scoreAgainst(tokens []string, canonical []Canonical, moniker []string, number int) float64 {
	idx := canonicalIndex(canonical, number)
	if idx < 0 {
		return 0
	}
	target, _ := stripMoniker(canonical[idx].Tokens, moniker)
	stripped, _ := stripMoniker(tokens, moniker)
	return textutil.OverlapScore(stripped, target)
}
