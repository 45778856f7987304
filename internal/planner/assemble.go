package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/DouglasMacKrell/namegnome-serve/internal/mapper"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/textutil"
)

const tieBreakerWarning = "tie_breaker_deterministic_preferred"

// mergeDelta is the confidence gap below which deterministic results win ties.
const mergeDelta = 0.10

// Assemble merges per-file candidates into a PlanReview. The output is a
// value: identical inputs produce identical artifacts modulo plan id and
// generated_at.
func Assemble(snapshot *media.ScanSnapshot, results []*mapper.FileResult, generatedAt time.Time) *plan.Review {
	var items []plan.Item
	tiePaths := map[string]struct{}{}

	for _, result := range results {
		if result == nil || len(result.Candidates) == 0 {
			continue
		}
		merged, tied := mergeCandidates(result.Candidates)
		if tied {
			tiePaths[result.File.Path] = struct{}{}
		}
		for _, candidate := range merged {
			items = append(items, itemFromCandidate(candidate))
		}
	}

	sortItems(snapshot.MediaType, items)
	for i := range items {
		items[i].ID = fmt.Sprintf("pli_%04d", i+1)
	}

	groups := buildGroups(items, results)
	summary := buildSummary(items)
	notes := buildNotes(tiePaths)

	return &plan.Review{
		PlanID:            planID(snapshot),
		SchemaVersion:     plan.SchemaVersion,
		GeneratedAt:       generatedAt.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z"),
		ScanID:            snapshot.ScanID,
		SourceFingerprint: snapshot.Fingerprint,
		MediaType:         string(snapshot.MediaType),
		Summary:           summary,
		Groups:            groups,
		Items:             items,
		Notes:             notes,
	}
}

// planID derives a stable plan identifier from the scan binding, so two
// plans over the same snapshot and cache state are byte-identical once
// generated_at is masked.
func planID(snapshot *media.ScanSnapshot) string {
	sum := sha256.Sum256([]byte(snapshot.ScanID + "|" + snapshot.Fingerprint + "|" + string(snapshot.MediaType)))
	return "pln_" + hex.EncodeToString(sum[:16])
}

// mergeCandidates applies the merge policy per source segment: when both
// passes produced a candidate for the same span, the higher-confidence one
// wins if the gap reaches mergeDelta; otherwise the deterministic result is
// preferred and the LLM candidate is preserved as an alternative.
func mergeCandidates(candidates []mapper.Candidate) ([]mapper.Candidate, bool) {
	type slot struct {
		deterministic *mapper.Candidate
		llm           *mapper.Candidate
		order         int
	}
	slots := map[string]*slot{}
	var keys []string
	for i := range candidates {
		candidate := &candidates[i]
		key := candidate.Src.Segment
		if key == "" {
			key = candidate.Dst.Path
		}
		entry, ok := slots[key]
		if !ok {
			entry = &slot{order: len(keys)}
			slots[key] = entry
			keys = append(keys, key)
		}
		if candidate.Origin == plan.OriginLLM {
			if entry.llm == nil || candidate.Confidence > entry.llm.Confidence {
				entry.llm = candidate
			}
		} else {
			if entry.deterministic == nil || candidate.Confidence > entry.deterministic.Confidence {
				entry.deterministic = candidate
			}
		}
	}

	tied := false
	merged := make([]mapper.Candidate, 0, len(keys))
	for _, key := range keys {
		entry := slots[key]
		switch {
		case entry.deterministic != nil && entry.llm != nil:
			winner, loser := entry.deterministic, entry.llm
			delta := entry.llm.Confidence - entry.deterministic.Confidence
			if delta >= mergeDelta {
				winner, loser = entry.llm, entry.deterministic
			} else if delta > -mergeDelta {
				// Near-tie: deterministic preferred.
				winner.Warnings = appendUnique(winner.Warnings, tieBreakerWarning)
				tied = true
			}
			keep := *winner
			keep.Alternatives = append(keep.Alternatives, plan.Alternative{
				Origin:     loser.Origin,
				Confidence: loser.Confidence,
				DstPath:    loser.Dst.Path,
				Reason:     loser.Reason,
			})
			merged = append(merged, keep)
		case entry.deterministic != nil:
			merged = append(merged, *entry.deterministic)
		default:
			merged = append(merged, *entry.llm)
		}
	}
	return merged, tied
}

func itemFromCandidate(candidate mapper.Candidate) plan.Item {
	warnings := candidate.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	alternatives := candidate.Alternatives
	if alternatives == nil {
		alternatives = []plan.Alternative{}
	}
	sources := candidate.Sources
	if sources == nil {
		sources = []plan.SourceRef{}
	}
	item := plan.Item{
		Origin:       candidate.Origin,
		Confidence:   candidate.Confidence,
		Bucket:       plan.BucketFor(candidate.Confidence),
		Src:          candidate.Src,
		Dst:          candidate.Dst,
		Sources:      sources,
		Warnings:     warnings,
		Anthology:    candidate.Anthology,
		Alternatives: alternatives,
	}
	if candidate.Reason != "" {
		item.Explain = &plan.Explain{Reason: candidate.Reason}
	}
	return item
}

// sortItems orders items by source path under natural, case-insensitive
// comparison, then by the media type's intra-group key.
func sortItems(mediaType media.Type, items []plan.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if cmp := textutil.NaturalCompare(items[i].Src.Path, items[j].Src.Path); cmp != 0 {
			return cmp < 0
		}
		a, b := items[i], items[j]
		switch mediaType {
		case media.TypeTV:
			as, ae := episodeSortKey(a)
			bs, be := episodeSortKey(b)
			if as != bs {
				return as < bs
			}
			if ae != be {
				return ae < be
			}
		case media.TypeMovie:
			ay, by := movieYear(a), movieYear(b)
			if ay != by {
				return ay < by
			}
			at, bt := movieTitle(a), movieTitle(b)
			if at != bt {
				return at < bt
			}
		case media.TypeMusic:
			ad, at := trackSortKey(a)
			bd, bt := trackSortKey(b)
			if ad != bd {
				return ad < bd
			}
			if at != bt {
				return at < bt
			}
		}
		return a.Dst.Path < b.Dst.Path
	})
}

func episodeSortKey(item plan.Item) (int, int) {
	if item.Dst.Episode == nil || len(item.Dst.Episode.Episodes) == 0 {
		return 1 << 30, 1 << 30
	}
	return item.Dst.Episode.Season, item.Dst.Episode.Episodes[0]
}

func movieYear(item plan.Item) int {
	if item.Dst.Movie == nil {
		return 1 << 30
	}
	return item.Dst.Movie.Year
}

func movieTitle(item plan.Item) string {
	if item.Dst.Movie == nil {
		return ""
	}
	return item.Dst.Movie.Title
}

func trackSortKey(item plan.Item) (int, int) {
	if item.Dst.Track == nil {
		return 1 << 30, 1 << 30
	}
	return item.Dst.Track.Disc, item.Dst.Track.Track
}

// buildGroups clusters items by source path. Groups reference item ids only.
func buildGroups(items []plan.Item, results []*mapper.FileResult) []plan.Group {
	fileBySrc := map[string]*media.MediaFile{}
	for _, result := range results {
		if result != nil && result.File != nil {
			fileBySrc[result.File.Path] = result.File
		}
	}

	grouped := map[string]*plan.Group{}
	var order []string
	for _, item := range items {
		src := item.Src.Path
		group, ok := grouped[src]
		if !ok {
			srcFile := plan.SrcFile{Path: src}
			if file := fileBySrc[src]; file != nil {
				srcFile.Size = file.Size
				srcFile.Hash = file.Hash
				if !file.ModTime.IsZero() {
					srcFile.Mtime = file.ModTime.UTC().Format(time.RFC3339Nano)
				}
			}
			group = &plan.Group{GroupKey: src, SrcFile: srcFile}
			grouped[src] = group
			order = append(order, src)
		}
		group.ItemIDs = append(group.ItemIDs, item.ID)
		group.Rollup.Count++
		if group.Rollup.Count == 1 || item.Confidence < group.Rollup.ConfidenceMin {
			group.Rollup.ConfidenceMin = item.Confidence
		}
		if item.Confidence > group.Rollup.ConfidenceMax {
			group.Rollup.ConfidenceMax = item.Confidence
		}
		for _, warning := range item.Warnings {
			group.Rollup.Warnings = appendUnique(group.Rollup.Warnings, warning)
		}
	}

	sort.Slice(order, func(i, j int) bool { return textutil.NaturalLess(order[i], order[j]) })
	groups := make([]plan.Group, 0, len(order))
	for _, src := range order {
		group := grouped[src]
		if group.Rollup.Warnings == nil {
			group.Rollup.Warnings = []string{}
		}
		sort.Strings(group.Rollup.Warnings)
		groups = append(groups, *group)
	}
	return groups
}

func buildSummary(items []plan.Item) plan.Summary {
	summary := plan.Summary{
		TotalItems:   len(items),
		ByOrigin:     map[string]int{"deterministic": 0, "llm": 0},
		ByConfidence: map[string]int{"high": 0, "medium": 0, "low": 0},
	}
	for _, item := range items {
		summary.ByOrigin[string(item.Origin)]++
		summary.ByConfidence[string(item.Bucket)]++
		summary.Warnings += len(item.Warnings)
		if item.Anthology {
			summary.AnthologyCandidates++
		}
		if item.Disambiguation != nil {
			summary.DisambiguationsRequired++
		}
	}
	return summary
}

func buildNotes(tiePaths map[string]struct{}) []string {
	if len(tiePaths) == 0 {
		return []string{}
	}
	paths := make([]string, 0, len(tiePaths))
	for path := range tiePaths {
		paths = append(paths, path)
	}
	sort.Slice(paths, func(i, j int) bool { return strings.ToLower(paths[i]) < strings.ToLower(paths[j]) })
	return []string{"Deterministic results preferred for near-ties at: " + strings.Join(paths, ", ")}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
