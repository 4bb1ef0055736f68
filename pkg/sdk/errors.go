package itemradar

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by APIError.Is based on the server's error code.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrPhaseConflict = errors.New("workflow phase conflict")
	ErrRateLimited   = errors.New("rate limited")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	// Phase is set on phase_conflict errors and names the session's
	// actual workflow phase.
	Phase string `json:"phase,omitempty"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is maps server error codes onto the package's sentinel errors so
// callers can use errors.Is without inspecting codes.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Code == "validation_failed" || e.Code == "bad_request"
	case ErrNotFound:
		return e.Code == "item_not_found" || e.Code == "session_not_found" || e.Code == "not_found"
	case ErrPhaseConflict:
		return e.Code == "phase_conflict"
	case ErrRateLimited:
		return e.Code == "rate_limited" || e.Code == "ai_quota_exceeded"
	}
	return false
}
