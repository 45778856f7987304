package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/planner"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response", logging.Error(err))
	}
}

func (s *Server) writeBytes(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// errorBody is the uniform machine-readable error envelope.
type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	// Disambiguation carries its own richer body.
	var disambigErr *planner.DisambiguationError
	if errors.As(err, &disambigErr) {
		pending := disambigErr.Pending
		s.writeJSON(w, http.StatusConflict, map[string]any{
			"status":               "disambiguation_required",
			"disambiguation_token": pending.Token,
			"field":                pending.Field,
			"candidates":           pending.Candidates,
			"suggested":            pending.Suggested,
		})
		return
	}

	status := services.HTTPStatus(err)
	s.writeJSON(w, status, errorBody{
		Status:  "error",
		Code:    services.Code(err),
		Message: err.Error(),
	})
}

func (s *Server) methodNotAllowed(w http.ResponseWriter) {
	s.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Status: "error", Code: "method_not_allowed", Message: "method not allowed"})
}

func decodeBody(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return services.Wrap(services.ErrValidation, "api", "decode", "malformed request body", err)
	}
	return nil
}
