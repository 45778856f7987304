package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/DouglasMacKrell/namegnome-serve/internal/applier"
	"github.com/DouglasMacKrell/namegnome-serve/internal/jobs"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/mapper"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/planner"
	"github.com/DouglasMacKrell/namegnome-serve/internal/scanner"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"offline": s.cfg.Providers.Offline,
		"cache":   s.store.Stats(),
	})
}

type scanRequest struct {
	Root      string `json:"root"`
	MediaType string `json:"media_type"`
	Anthology bool   `json:"anthology,omitempty"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	var req scanRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	snapshot, err := s.scan(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) scan(ctx context.Context, req scanRequest) (*media.ScanSnapshot, error) {
	mediaType, err := media.ParseType(req.MediaType)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "scan", err.Error(), nil)
	}
	snapshot, err := s.scanner.Scan(ctx, scanner.Options{
		Root:      req.Root,
		MediaType: mediaType,
		Anthology: req.Anthology,
	})
	if err != nil {
		return nil, err
	}
	// The scan parameters are kept so a disambiguation resume can re-run the
	// same plan after the decision lands.
	if params, marshalErr := json.Marshal(req); marshalErr == nil {
		_ = s.store.PutKV(ctx, "scan:"+snapshot.ScanID, string(params))
	}
	return snapshot, nil
}

type planRequest struct {
	scanRequest
	Async       bool   `json:"async,omitempty"`
	PinProvider string `json:"pin_provider,omitempty"`
	PinID       string `json:"pin_id,omitempty"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	var req planRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	if req.Async {
		job := s.jobs.Start("plan")
		go func() {
			ctx := services.WithJobID(context.Background(), job.ID)
			review, err := s.plan(ctx, req, job)
			job.Finish(review, err)
		}()
		s.writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
		return
	}

	review, err := s.plan(r.Context(), req, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	encoded, err := plan.EncodeCanonical(review)
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrFatal, "api", "plan", "encode review", err))
		return
	}
	s.writeBytes(w, http.StatusOK, encoded)
}

func (s *Server) plan(ctx context.Context, req planRequest, job *jobs.Job) (*plan.Review, error) {
	snapshot, err := s.scan(ctx, req.scanRequest)
	if err != nil {
		return nil, err
	}
	var pin *mapper.Pin
	if req.PinProvider != "" && req.PinID != "" {
		pin = &mapper.Pin{Provider: req.PinProvider, ExtID: req.PinID}
	}
	planReq := planner.Request{Snapshot: snapshot, Pin: pin}
	if job != nil {
		planReq.Progress = func(done, total int, path string) {
			job.Publish(jobs.EventProgress, map[string]any{"done": done, "total": total, "path": path})
		}
	}
	return s.planner.Plan(ctx, planReq)
}

type disambiguateRequest struct {
	Token    string `json:"token"`
	ChoiceID string `json:"choice_id"`
}

func (s *Server) handleDisambiguate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	var req disambiguateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	pending, err := s.ledger.Resolve(r.Context(), req.Token, req.ChoiceID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Resume: re-plan with the same scan parameters; the persisted decision
	// now pins the entity, so deterministic results are reused from cache.
	params, err := s.store.GetKV(r.Context(), "scan:"+pending.ScanID)
	if err != nil {
		s.writeJSON(w, http.StatusOK, map[string]any{"status": "resolved", "token": pending.Token})
		return
	}
	var scanReq scanRequest
	if err := json.Unmarshal([]byte(params), &scanReq); err != nil {
		s.writeError(w, services.Wrap(services.ErrFatal, "api", "disambiguate", "corrupt scan parameters", err))
		return
	}
	review, err := s.plan(r.Context(), planRequest{scanRequest: scanReq}, nil)
	if err != nil {
		s.writeError(w, err)
		return
	}
	encoded, err := plan.EncodeCanonical(review)
	if err != nil {
		s.writeError(w, services.Wrap(services.ErrFatal, "api", "disambiguate", "encode review", err))
		return
	}
	s.writeBytes(w, http.StatusOK, encoded)
}

type applyRequest struct {
	Review    *plan.Review `json:"plan"`
	Root      string       `json:"root"`
	Mode      string       `json:"mode,omitempty"`
	Collision string       `json:"collision_strategy,omitempty"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}
	var req applyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	mode, ok := applier.ParseMode(req.Mode)
	if !ok {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "apply", "invalid mode "+req.Mode, nil))
		return
	}
	collision, ok := applier.ParseCollisionStrategy(req.Collision)
	if !ok {
		s.writeError(w, services.Wrap(services.ErrValidation, "api", "apply", "invalid collision strategy "+req.Collision, nil))
		return
	}
	if collision == applier.CollisionSkip && req.Collision == "" {
		if configured, ok := applier.ParseCollisionStrategy(s.cfg.Apply.CollisionStrategy); ok {
			collision = configured
		}
	}

	result, err := s.executor.Apply(r.Context(), applier.Request{
		Review:    req.Review,
		Root:      req.Root,
		Mode:      mode,
		Collision: collision,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	status := http.StatusOK
	switch {
	case allStale(result):
		// The bound snapshot no longer matches the filesystem at all.
		s.writeJSON(w, http.StatusConflict, map[string]any{
			"status": "stale_plan",
			"code":   services.Code(services.ErrStalePlan),
			"result": result,
		})
		return
	case result.Failed > 0:
		status = http.StatusMultiStatus
	}
	s.writeJSON(w, status, result)
	s.logger.Info("apply served",
		logging.String("report_id", result.ReportID),
		logging.Int("applied", result.Applied),
		logging.Int("failed", result.Failed))
}

func allStale(result *applier.Result) bool {
	if len(result.Outcomes) == 0 {
		return false
	}
	for _, outcome := range result.Outcomes {
		if outcome.Status != applier.StatusSkippedStale {
			return false
		}
	}
	return true
}
