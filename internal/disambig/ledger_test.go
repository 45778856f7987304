package disambig

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func newLedger(t *testing.T) (*Ledger, *cachestore.Store) {
	t.Helper()
	store, err := cachestore.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewLedger(store, logging.NewNop()), store
}

func dangerMouseCandidates() []plan.Candidate {
	return []plan.Candidate{
		{Provider: "tvdb", ID: "70325", Title: "Danger Mouse", Year: 1981},
		{Provider: "tvdb", ID: "311900", Title: "Danger Mouse (2015)", Year: 2015},
	}
}

func TestMintAndResolveWritesDecision(t *testing.T) {
	ledger, store := newLedger(t)
	ctx := t.Context()

	pending, err := ledger.Mint(ctx, "scn_1", "tv", "series", "danger mouse", 0, dangerMouseCandidates(), "311900")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if !strings.HasPrefix(pending.Token, "dsk_") {
		t.Fatalf("token = %q", pending.Token)
	}
	if pending.Year != cachestore.YearUnknown {
		t.Fatalf("year = %d", pending.Year)
	}

	resolved, err := ledger.Resolve(ctx, pending.Token, "311900")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !resolved.Resolved || resolved.Choice == nil || resolved.Choice.ID != "311900" {
		t.Fatalf("resolved = %+v", resolved)
	}

	decision, err := store.GetDecision(ctx, "tv", "danger mouse", 2015)
	if err != nil {
		t.Fatalf("decision not persisted: %v", err)
	}
	if decision.Provider != "tvdb" || decision.ExtID != "311900" {
		t.Fatalf("decision = %+v", decision)
	}
}

func TestResolveUnknownToken(t *testing.T) {
	ledger, _ := newLedger(t)
	_, err := ledger.Resolve(t.Context(), "dsk_missing", "1")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveRejectsForeignChoice(t *testing.T) {
	ledger, _ := newLedger(t)
	ctx := t.Context()
	pending, err := ledger.Mint(ctx, "scn_1", "tv", "series", "danger mouse", 0, dangerMouseCandidates(), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ledger.Resolve(ctx, pending.Token, "99999"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
