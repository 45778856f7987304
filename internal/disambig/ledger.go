package disambig

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

const kvPrefix = "disambig:"

// Pending is a minted, not-yet-resolved (or just-resolved) entity choice.
type Pending struct {
	Token      string           `json:"token"`
	ScanID     string           `json:"scan_id,omitempty"`
	Scope      string           `json:"scope"`
	Field      string           `json:"field"`
	TitleNorm  string           `json:"title_norm"`
	Year       int              `json:"year"`
	Candidates []plan.Candidate `json:"candidates"`
	Suggested  string           `json:"suggested,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	Resolved   bool             `json:"resolved"`
	Choice     *plan.Candidate  `json:"choice,omitempty"`
}

// Ledger mints and resolves disambiguation tokens backed by the cache store.
type Ledger struct {
	store  *cachestore.Store
	logger *slog.Logger
}

// NewLedger constructs a Ledger.
func NewLedger(store *cachestore.Store, logger *slog.Logger) *Ledger {
	return &Ledger{store: store, logger: logging.NewComponentLogger(logger, "disambig")}
}

// Mint creates a token for a pending choice and persists it. Year zero is
// stored as "year unknown".
func (l *Ledger) Mint(ctx context.Context, scanID, scope, field, titleNorm string, year int, candidates []plan.Candidate, suggested string) (*Pending, error) {
	if len(candidates) == 0 {
		return nil, services.Wrap(services.ErrValidation, "disambig", "mint", "at least one candidate required", nil)
	}
	if year <= 0 {
		year = cachestore.YearUnknown
	}
	pending := &Pending{
		Token:      "dsk_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		ScanID:     scanID,
		Scope:      scope,
		Field:      field,
		TitleNorm:  titleNorm,
		Year:       year,
		Candidates: candidates,
		Suggested:  suggested,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.put(ctx, pending); err != nil {
		return nil, err
	}
	l.logger.Info("minted disambiguation token",
		logging.String("token", pending.Token),
		logging.String("field", field),
		logging.Int("candidates", len(candidates)))
	return pending, nil
}

// Get fetches a pending choice by token.
func (l *Ledger) Get(ctx context.Context, token string) (*Pending, error) {
	value, err := l.store.GetKV(ctx, kvPrefix+token)
	if err != nil {
		if errors.Is(err, cachestore.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "disambig", "get", fmt.Sprintf("unknown token %s", token), nil)
		}
		return nil, services.Wrap(services.ErrFatal, "disambig", "get", token, err)
	}
	var pending Pending
	if err := json.Unmarshal([]byte(value), &pending); err != nil {
		return nil, services.Wrap(services.ErrFatal, "disambig", "get", "corrupt pending state", err)
	}
	return &pending, nil
}

// Resolve records the user's choice: the matching candidate becomes a
// durable Decision row and the token turns resumable.
func (l *Ledger) Resolve(ctx context.Context, token, choiceID string) (*Pending, error) {
	pending, err := l.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	var choice *plan.Candidate
	for i := range pending.Candidates {
		if pending.Candidates[i].ID == choiceID {
			choice = &pending.Candidates[i]
			break
		}
	}
	if choice == nil {
		return nil, services.Wrap(services.ErrValidation, "disambig", "resolve",
			fmt.Sprintf("choice %q is not among the candidates", choiceID), nil)
	}

	decision := cachestore.Decision{
		Scope:     pending.Scope,
		TitleNorm: pending.TitleNorm,
		Year:      pending.Year,
		Provider:  choice.Provider,
		ExtID:     choice.ID,
		DecidedAt: time.Now().UTC(),
	}
	if err := l.store.PutDecision(ctx, decision); err != nil {
		return nil, services.Wrap(services.ErrFatal, "disambig", "resolve", "persist decision", err)
	}

	pending.Resolved = true
	pending.Choice = choice
	if err := l.put(ctx, pending); err != nil {
		return nil, err
	}
	l.logger.Info("disambiguation resolved",
		logging.String("token", token),
		logging.String(logging.FieldProvider, choice.Provider),
		logging.String("ext_id", choice.ID))
	return pending, nil
}

func (l *Ledger) put(ctx context.Context, pending *Pending) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return services.Wrap(services.ErrFatal, "disambig", "persist", "encode pending state", err)
	}
	if err := l.store.PutKV(ctx, kvPrefix+pending.Token, string(data)); err != nil {
		return services.Wrap(services.ErrFatal, "disambig", "persist", pending.Token, err)
	}
	return nil
}
