package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel markers for the error taxonomy. Every user-visible error wraps
// exactly one marker so transports can map it to a stable machine code.
var (
	ErrValidation          = errors.New("validation error")
	ErrDisambiguation      = errors.New("disambiguation required")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrStalePlan           = errors.New("stale plan")
	ErrLocked              = errors.New("locked")
	ErrFilesystem          = errors.New("filesystem error")
	ErrSchemaViolation     = errors.New("schema violation")
	ErrNotFound            = errors.New("not found")
	ErrPartial             = errors.New("partial failure")
	ErrFatal               = errors.New("fatal error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later status classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrFatal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Code returns the stable machine code for an error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDisambiguation):
		return "disambiguation_required"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrStalePlan):
		return "stale_plan"
	case errors.Is(err, ErrLocked):
		return "locked"
	case errors.Is(err, ErrFilesystem):
		return "filesystem_error"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrPartial):
		return "partial"
	default:
		return "fatal"
	}
}

// HTTPStatus maps an error to the REST status code the API surface reports.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrDisambiguation):
		return http.StatusConflict
	case errors.Is(err, ErrProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrStalePlan):
		return http.StatusConflict
	case errors.Is(err, ErrLocked):
		return http.StatusLocked
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ExitCode maps an error to the CLI exit code contract: 0 success,
// 2 validation, 3 partial, 4 locked, 5 provider unavailable.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrValidation):
		return 2
	case errors.Is(err, ErrPartial):
		return 3
	case errors.Is(err, ErrLocked):
		return 4
	case errors.Is(err, ErrProviderUnavailable):
		return 5
	default:
		return 1
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
