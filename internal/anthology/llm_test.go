package anthology

import (
	"context"
	"errors"
	"testing"

	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
)

type stubCompleter struct {
	payload string
	err     error
	calls   int
}

func (s *stubCompleter) CompleteJSON(context.Context, string, string) (string, error) {
	s.calls++
	return s.payload, s.err
}

func ambiguousFile() *media.MediaFile {
	return &media.MediaFile{
		Season:  1,
		Episode: 1,
		Segments: []media.Segment{
			segment(1, 1, "Alpha Adventure"),
			segment(4, 4, "Delta Dilemma"),
		},
	}
}

func TestResolveSkipsLLMWhenClean(t *testing.T) {
	stub := &stubCompleter{payload: `{"groups":[]}`}
	resolver := NewResolver(stub, logging.NewNop())

	file := &media.MediaFile{
		Season:   1,
		Episode:  1,
		Segments: []media.Segment{segment(1, 1, "Alpha Adventure")},
	}
	result := resolver.Resolve(t.Context(), file, episodeList("Alpha Adventure", "Beta Bargain"))
	if result.LLMUsed {
		t.Fatal("assist consulted on a clean deterministic result")
	}
	if stub.calls != 0 {
		t.Fatalf("llm called %d times", stub.calls)
	}
}

func TestResolveAcceptsValidAssist(t *testing.T) {
	stub := &stubCompleter{payload: `{"groups":[
		{"season":1,"episodes":[1],"titles":["Alpha Adventure"],"confidence":0.95},
		{"season":1,"episodes":[2,3],"titles":["Beta Bargain","Gamma Gambit"],"confidence":0.9},
		{"season":1,"episodes":[4],"titles":["Delta Dilemma"],"confidence":0.95}
	]}`}
	resolver := NewResolver(stub, logging.NewNop())

	result := resolver.Resolve(t.Context(), ambiguousFile(),
		episodeList("Alpha Adventure", "Beta Bargain", "Gamma Gambit", "Delta Dilemma"))
	if !result.LLMUsed {
		t.Fatalf("expected assist to run: %+v", result)
	}
	if len(result.LLMGroups) != 3 {
		t.Fatalf("llm groups = %+v", result.LLMGroups)
	}
}

func TestResolveRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "the answer is episodes 1 and 2"},
		{"non-canonical episode", `{"groups":[{"season":1,"episodes":[9],"titles":["X"],"confidence":0.9}]}`},
		{"non-contiguous", `{"groups":[{"season":1,"episodes":[1,3],"titles":["Alpha Adventure","Gamma Gambit"],"confidence":0.9}]}`},
		{"invented title", `{"groups":[{"season":1,"episodes":[1],"titles":["Made Up"],"confidence":0.9}]}`},
		{"confidence range", `{"groups":[{"season":1,"episodes":[1],"titles":["Alpha Adventure"],"confidence":1.5}]}`},
	}
	episodes := episodeList("Alpha Adventure", "Beta Bargain", "Gamma Gambit", "Delta Dilemma")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewResolver(&stubCompleter{payload: tc.payload}, logging.NewNop())
			result := resolver.Resolve(t.Context(), ambiguousFile(), episodes)
			if result.LLMUsed {
				t.Fatal("schema-violating output accepted")
			}
			if !containsWarning(result.Warnings, WarnLLMUnavailable) {
				t.Fatalf("expected llm_unavailable warning, got %v", result.Warnings)
			}
		})
	}
}

func TestResolveDegradesOnLLMError(t *testing.T) {
	resolver := NewResolver(&stubCompleter{err: errors.New("connection refused")}, logging.NewNop())
	result := resolver.Resolve(t.Context(), ambiguousFile(),
		episodeList("Alpha Adventure", "Beta Bargain", "Gamma Gambit", "Delta Dilemma"))
	if result.LLMUsed {
		t.Fatal("assist marked used despite error")
	}
	if !containsWarning(result.Warnings, WarnLLMUnavailable) {
		t.Fatalf("expected llm_unavailable, got %v", result.Warnings)
	}
	if len(result.Groups) == 0 {
		t.Fatal("deterministic result must survive llm failure")
	}
}
