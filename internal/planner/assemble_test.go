package planner

import (
	"bytes"
	"testing"
	"time"

	"github.com/DouglasMacKrell/namegnome-serve/internal/mapper"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
)

func tvSnapshot() *media.ScanSnapshot {
	return &media.ScanSnapshot{
		ScanID:      "scn_fixed",
		Root:        "/tv",
		MediaType:   media.TypeTV,
		Fingerprint: "fp_fixed",
	}
}

func tvCandidate(origin plan.Origin, confidence float64, src, segment, dst string, season int, episodes []int) mapper.Candidate {
	return mapper.Candidate{
		Origin:     origin,
		Confidence: confidence,
		Src:        plan.Src{Path: src, Segment: segment},
		Dst: plan.Dst{
			Path:    dst,
			Episode: &plan.EpisodeMeta{Season: season, Episodes: episodes},
		},
		Sources: []plan.SourceRef{{Provider: "tvdb", ID: "1", Type: "episode"}},
	}
}

func fileResult(path string, candidates ...mapper.Candidate) *mapper.FileResult {
	return &mapper.FileResult{
		File:       &media.MediaFile{Path: path, Type: media.TypeTV, Size: 100},
		Candidates: candidates,
	}
}

func TestMergeNearTiePrefersDeterministic(t *testing.T) {
	results := []*mapper.FileResult{fileResult("/tv/a.mkv",
		tvCandidate(plan.OriginDeterministic, 0.85, "/tv/a.mkv", "E01-E02", "/tv/det.mkv", 1, []int{1, 2}),
		tvCandidate(plan.OriginLLM, 0.90, "/tv/a.mkv", "E01-E02", "/tv/llm.mkv", 1, []int{1, 2}),
	)}
	review := Assemble(tvSnapshot(), results, time.Unix(0, 0))

	if len(review.Items) != 1 {
		t.Fatalf("items = %+v", review.Items)
	}
	item := review.Items[0]
	if item.Origin != plan.OriginDeterministic {
		t.Fatalf("origin = %s", item.Origin)
	}
	if !contains(item.Warnings, "tie_breaker_deterministic_preferred") {
		t.Fatalf("warnings = %v", item.Warnings)
	}
	if len(item.Alternatives) != 1 || item.Alternatives[0].Origin != plan.OriginLLM {
		t.Fatalf("alternatives = %+v", item.Alternatives)
	}
	if len(review.Notes) != 1 {
		t.Fatalf("notes = %v", review.Notes)
	}
}

func TestMergeClearWinnerTakesLLM(t *testing.T) {
	results := []*mapper.FileResult{fileResult("/tv/a.mkv",
		tvCandidate(plan.OriginDeterministic, 0.70, "/tv/a.mkv", "E01-E02", "/tv/det.mkv", 1, []int{1, 2}),
		tvCandidate(plan.OriginLLM, 0.95, "/tv/a.mkv", "E01-E02", "/tv/llm.mkv", 1, []int{1, 2}),
	)}
	review := Assemble(tvSnapshot(), results, time.Unix(0, 0))

	item := review.Items[0]
	if item.Origin != plan.OriginLLM {
		t.Fatalf("origin = %s", item.Origin)
	}
	if contains(item.Warnings, "tie_breaker_deterministic_preferred") {
		t.Fatal("tie warning on a clear winner")
	}
	if len(item.Alternatives) != 1 || item.Alternatives[0].Origin != plan.OriginDeterministic {
		t.Fatalf("alternatives = %+v", item.Alternatives)
	}
}

func TestItemOrderingIsNaturalAndStable(t *testing.T) {
	results := []*mapper.FileResult{
		fileResult("/tv/Show/Season 10/e.mkv",
			tvCandidate(plan.OriginDeterministic, 1, "/tv/Show/Season 10/e.mkv", "", "/tv/d10.mkv", 10, []int{1})),
		fileResult("/tv/Show/Season 2/e.mkv",
			tvCandidate(plan.OriginDeterministic, 1, "/tv/Show/Season 2/e.mkv", "", "/tv/d2.mkv", 2, []int{1})),
	}
	review := Assemble(tvSnapshot(), results, time.Unix(0, 0))

	if len(review.Items) != 2 {
		t.Fatalf("items = %d", len(review.Items))
	}
	if review.Items[0].Dst.Episode.Season != 2 {
		t.Fatalf("natural order violated: %+v", review.Items)
	}
	if review.Items[0].ID != "pli_0001" || review.Items[1].ID != "pli_0002" {
		t.Fatalf("ids = %s, %s", review.Items[0].ID, review.Items[1].ID)
	}
}

func TestGroupsReferenceItemIDs(t *testing.T) {
	results := []*mapper.FileResult{fileResult("/tv/a.mkv",
		tvCandidate(plan.OriginDeterministic, 1.0, "/tv/a.mkv", "E01", "/tv/d1.mkv", 1, []int{1}),
		tvCandidate(plan.OriginDeterministic, 0.8, "/tv/a.mkv", "E02", "/tv/d2.mkv", 1, []int{2}),
	)}
	review := Assemble(tvSnapshot(), results, time.Unix(0, 0))

	if len(review.Groups) != 1 {
		t.Fatalf("groups = %+v", review.Groups)
	}
	group := review.Groups[0]
	if len(group.ItemIDs) != 2 {
		t.Fatalf("item ids = %v", group.ItemIDs)
	}
	if group.Rollup.Count != 2 || group.Rollup.ConfidenceMin != 0.8 || group.Rollup.ConfidenceMax != 1.0 {
		t.Fatalf("rollup = %+v", group.Rollup)
	}
	if group.SrcFile.Size != 100 {
		t.Fatalf("src size = %d", group.SrcFile.Size)
	}
}

func TestAssembleIsByteReproducible(t *testing.T) {
	build := func() []byte {
		results := []*mapper.FileResult{fileResult("/tv/a.mkv",
			tvCandidate(plan.OriginDeterministic, 1.0, "/tv/a.mkv", "E01", "/tv/d1.mkv", 1, []int{1}),
		)}
		review := Assemble(tvSnapshot(), results, time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC))
		encoded, err := plan.EncodeCanonical(review)
		if err != nil {
			t.Fatal(err)
		}
		return plan.MaskGeneratedAt(encoded)
	}
	if !bytes.Equal(build(), build()) {
		t.Fatal("two assemblies of identical inputs differ")
	}
}

func TestSummaryCounts(t *testing.T) {
	results := []*mapper.FileResult{
		fileResult("/tv/a.mkv", mapper.Candidate{
			Origin: plan.OriginDeterministic, Confidence: 0.95,
			Src: plan.Src{Path: "/tv/a.mkv"}, Dst: plan.Dst{Path: "/tv/x.mkv"},
			Anthology: true,
		}),
		fileResult("/tv/b.mkv", mapper.Candidate{
			Origin: plan.OriginDeterministic, Confidence: 0.5,
			Src: plan.Src{Path: "/tv/b.mkv"}, Dst: plan.Dst{Path: "/tv/y.mkv"},
			Warnings: []string{"needs_review"},
		}),
	}
	review := Assemble(tvSnapshot(), results, time.Unix(0, 0))

	summary := review.Summary
	if summary.TotalItems != 2 || summary.ByOrigin["deterministic"] != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.ByConfidence["high"] != 1 || summary.ByConfidence["low"] != 1 {
		t.Fatalf("buckets = %+v", summary.ByConfidence)
	}
	if summary.Warnings != 1 || summary.AnthologyCandidates != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
