package mapper

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/DouglasMacKrell/namegnome-serve/internal/anthology"
	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/disambig"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/providers"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
	"github.com/DouglasMacKrell/namegnome-serve/internal/textutil"
)

// Candidate is one proposed mapping for a source file (or one of its
// segments), before plan assembly.
type Candidate struct {
	Origin     plan.Origin
	Confidence float64
	Src        plan.Src
	Dst        plan.Dst
	Sources    []plan.SourceRef
	Warnings   []string
	Anthology  bool
	Reason     string

	// Alternatives collects losing merge candidates during assembly.
	Alternatives []plan.Alternative
}

// FileResult is the mapping outcome for one file.
type FileResult struct {
	File           *media.MediaFile
	Candidates     []Candidate
	Disambiguation *disambig.Pending
}

// Pin is an explicit (provider, ext_id) override supplied by programmatic
// callers to bypass disambiguation.
type Pin struct {
	Provider string
	ExtID    string
}

// Mapper drives entity resolution and content mapping.
type Mapper struct {
	store    *cachestore.Store
	gateway  *providers.Gateway
	ledger   *disambig.Ledger
	resolver *anthology.Resolver
	logger   *slog.Logger
}

// New constructs a Mapper.
func New(store *cachestore.Store, gateway *providers.Gateway, ledger *disambig.Ledger, resolver *anthology.Resolver, logger *slog.Logger) *Mapper {
	return &Mapper{
		store:    store,
		gateway:  gateway,
		ledger:   ledger,
		resolver: resolver,
		logger:   logging.NewComponentLogger(logger, "mapper"),
	}
}

// MapFile resolves one file. A provider outage never fails the call: the
// file degrades to a needs_review candidate built from its own parse.
func (m *Mapper) MapFile(ctx context.Context, snapshot *media.ScanSnapshot, file *media.MediaFile, pin *Pin) (*FileResult, error) {
	switch file.Type {
	case media.TypeTV:
		return m.mapTV(ctx, snapshot, file, pin)
	case media.TypeMovie:
		return m.mapMovie(ctx, snapshot, file, pin)
	case media.TypeMusic:
		return m.mapMusic(ctx, snapshot, file, pin)
	default:
		return nil, services.Wrap(services.ErrValidation, "mapper", "map", "unknown media type", nil)
	}
}

// resolveEntity pins the provider entity for (title, year): decision first,
// then search with year filtering. Multiple plausible candidates mint a
// disambiguation token.
func (m *Mapper) resolveEntity(ctx context.Context, snapshot *media.ScanSnapshot, kind providers.Kind, field, title string, year int, pin *Pin) (*providers.Candidate, *disambig.Pending, error) {
	titleNorm := textutil.TitleNorm(title)
	scope := string(snapshot.MediaType)

	if pin != nil {
		return m.hydrate(ctx, kind, &providers.Candidate{Provider: pin.Provider, ID: pin.ExtID, Title: title, Year: year}), nil, nil
	}

	if decision, err := m.store.GetDecision(ctx, scope, titleNorm, decisionYear(year)); err == nil {
		return m.hydrate(ctx, kind, &providers.Candidate{Provider: decision.Provider, ID: decision.ExtID, Title: title, Year: year}), nil, nil
	} else if !errors.Is(err, cachestore.ErrNotFound) {
		return nil, nil, services.Wrap(services.ErrFatal, "mapper", "decision lookup", titleNorm, err)
	}

	candidates, err := m.gateway.Search(ctx, snapshot.MediaType, kind, title, year)
	if err != nil {
		return nil, nil, err
	}
	filtered := filterByYear(candidates, year)
	switch len(filtered) {
	case 0:
		return nil, nil, services.Wrap(services.ErrProviderUnavailable, "mapper", "search",
			"no provider candidates for "+title, nil)
	case 1:
		return &filtered[0], nil, nil
	default:
		planCandidates := make([]plan.Candidate, 0, len(filtered))
		for _, candidate := range filtered {
			planCandidates = append(planCandidates, plan.Candidate{
				Provider: candidate.Provider,
				ID:       candidate.ID,
				Title:    candidate.Title,
				Year:     candidate.Year,
			})
		}
		pending, mintErr := m.ledger.Mint(ctx, snapshot.ScanID, scope, field, titleNorm, year, planCandidates, "")
		if mintErr != nil {
			return nil, nil, mintErr
		}
		return nil, pending, nil
	}
}

// hydrate fills a pinned candidate with canonical detail when the provider
// supports fetches; the parsed fields stand otherwise.
func (m *Mapper) hydrate(ctx context.Context, kind providers.Kind, candidate *providers.Candidate) *providers.Candidate {
	detail, err := m.gateway.Fetch(ctx, providers.Ref{Provider: candidate.Provider, Kind: kind, ID: candidate.ID})
	if err != nil {
		return candidate
	}
	if detail.Title != "" {
		candidate.Title = detail.Title
	}
	if detail.Year > 0 {
		candidate.Year = detail.Year
	}
	return candidate
}

func decisionYear(year int) int {
	if year <= 0 {
		return cachestore.YearUnknown
	}
	return year
}

func filterByYear(candidates []providers.Candidate, year int) []providers.Candidate {
	if year <= 0 {
		return candidates
	}
	var filtered []providers.Candidate
	for _, candidate := range candidates {
		if candidate.Year == 0 || candidate.Year == year {
			filtered = append(filtered, candidate)
		}
	}
	if len(filtered) == 0 {
		return candidates
	}
	return filtered
}

var trailingYearPattern = regexp.MustCompile(`\s*\((\d{4})\)\s*$`)

// cleanEntityTitle splits a provider display title like "Danger Mouse (2015)"
// into its bare title and year.
func cleanEntityTitle(title string, fallbackYear int) (string, int) {
	year := fallbackYear
	if match := trailingYearPattern.FindStringSubmatch(title); match != nil {
		if parsed, err := strconv.Atoi(match[1]); err == nil {
			year = parsed
		}
		title = trailingYearPattern.ReplaceAllString(title, "")
	}
	return strings.TrimSpace(title), year
}

// reviewCandidate degrades a file to a needs_review mapping built from its
// own parsed fields when providers are unavailable.
func reviewCandidate(file *media.MediaFile, cause string) Candidate {
	return Candidate{
		Origin:     plan.OriginDeterministic,
		Confidence: 0.2,
		Src:        plan.Src{Path: file.Path},
		Dst:        plan.Dst{Path: file.Path},
		Warnings:   []string{"needs_review", cause},
		Anthology:  file.AnthologyCandidate,
		Reason:     "provider metadata unavailable; destination left unchanged",
	}
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
