/*
errors.go - Centralized error types for the schedule engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Everything the engine returns is value-level and typed; nothing is
  retried or swallowed here - user-facing messaging and retries belong
  to the calling layer (HTTP handler, worker).

ERROR CATEGORIES:
  1. Configuration errors - malformed Service definitions, rejected
     before any schedule generation is attempted
  2. Validation errors    - invalid payment commands or state
     transitions, rejected synchronously with no state mutated
  3. Conflict errors      - regeneration would violate the locked-row
     preservation invariant (defensive; should not occur)

USAGE:
  if errors.Is(err, schedule.ErrConfiguration) { ... }

  var cfgErr *schedule.ConfigurationError
  if errors.As(err, &cfgErr) {
      log.Printf("bad field %s: %s", cfgErr.Field, cfgErr.Reason)
  }
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration marks a malformed Service definition.
	ErrConfiguration = errors.New("invalid service configuration")

	// ErrValidation marks an invalid command input or state transition.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks a regeneration that would orphan a locked
	// schedule row.
	ErrConflict = errors.New("schedule conflict")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError reports which part of a Service definition is
// malformed. Surfaced at creation/update time, never mid-generation.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid service configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ValidationError reports an invalid payment command or an illegal
// schedule state transition.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports a locked schedule row that regeneration could
// not preserve.
type ConflictError struct {
	ScheduleID ScheduleID
	Reason     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict on %s: %s", e.ScheduleID, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func configErr(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrValidation)
}
