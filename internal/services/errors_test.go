package services

import (
	"errors"
	"net/http"
	"testing"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrProviderUnavailable, "plan", "search", "tvdb exhausted retries", cause)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatal("marker lost")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Wrap(ErrValidation, "scan", "", "", nil), http.StatusUnprocessableEntity},
		{Wrap(ErrDisambiguation, "plan", "", "", nil), http.StatusConflict},
		{Wrap(ErrLocked, "apply", "", "", nil), http.StatusLocked},
		{Wrap(ErrStalePlan, "apply", "", "", nil), http.StatusConflict},
		{Wrap(ErrProviderUnavailable, "plan", "", "", nil), http.StatusServiceUnavailable},
		{Wrap(ErrNotFound, "jobs", "", "", nil), http.StatusNotFound},
		{Wrap(ErrFatal, "store", "", "", nil), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Fatalf("ExitCode(nil) = %d", got)
	}
	if got := ExitCode(Wrap(ErrValidation, "", "", "", nil)); got != 2 {
		t.Fatalf("validation exit = %d", got)
	}
	if got := ExitCode(Wrap(ErrLocked, "", "", "", nil)); got != 4 {
		t.Fatalf("locked exit = %d", got)
	}
	if got := ExitCode(Wrap(ErrProviderUnavailable, "", "", "", nil)); got != 5 {
		t.Fatalf("provider exit = %d", got)
	}
}

func TestContextCarriers(t *testing.T) {
	ctx := WithJobID(WithPlanID(t.Context(), "pln_x"), "job_y")
	if id, ok := JobIDFromContext(ctx); !ok || id != "job_y" {
		t.Fatalf("job id = %q, %v", id, ok)
	}
	if id, ok := PlanIDFromContext(ctx); !ok || id != "pln_x" {
		t.Fatalf("plan id = %q, %v", id, ok)
	}
}
