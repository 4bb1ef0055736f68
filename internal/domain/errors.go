package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals rejected input (empty description, bad coordinates, malformed email).
	ErrValidation = errors.New("validation failed")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrItemNotFound signals a missing item record.
	ErrItemNotFound = errors.New("item not found")
	// ErrSessionNotFound signals a missing search session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidTransition signals an item status transition out of a terminal state.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrVectorDimMismatch signals a vector dimension mismatch within the pool.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrExternalService signals an unreachable or failing external dependency.
	ErrExternalService = errors.New("external service error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrOracleUnavailable signals a generative oracle failure after retries.
	ErrOracleUnavailable = errors.New("oracle unavailable")
	// ErrGeocodingFailed signals that no geocoding backend resolved a location.
	ErrGeocodingFailed = errors.New("geocoding failed")
	// ErrAIQuotaExceeded signals an exhausted AI token budget.
	ErrAIQuotaExceeded = errors.New("ai token quota exceeded")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// PhaseError wraps an engine operation invoked in the wrong workflow phase.
type PhaseError struct {
	Op    string
	Phase string
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("operation %s not applicable in phase %s", e.Op, e.Phase)
}

// NewPhaseError creates a phase mismatch error.
func NewPhaseError(op, phase string) error {
	return &PhaseError{Op: op, Phase: phase}
}
