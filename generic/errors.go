/*
errors.go - Centralized error types for the revenue engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages return these (or wrap them) so the API layer can map
  them to HTTP status codes without knowing the domain.

ERROR CATEGORIES:
  1. Validation errors - bad caller input (guest counts, dates, totals)
  2. Configuration errors - incomplete catalog data (matrix gaps, bad tables)
  3. Store errors - missing records, lost compare-and-swap races

USAGE:
  if errors.Is(err, generic.ErrConfiguration) {
      // catalog needs fixing, not the request
  }

SEE ALSO:
  - pricing/engine.go: raises validation and configuration errors
  - cancellation/sweeper.go: tolerates per-booking store errors
  - api/handlers.go: maps errors to HTTP status
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when caller input is rejected before any
	// arithmetic runs.
	ErrValidation = errors.New("validation failed")

	// ErrConfiguration is returned when catalog or pricing configuration
	// cannot serve the request (e.g. an undefined meal plan/occupancy cell).
	ErrConfiguration = errors.New("configuration error")

	// ErrBookingNotFound is returned when a referenced booking doesn't exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrCategoryNotFound is returned when a referenced room category doesn't exist.
	ErrCategoryNotFound = errors.New("room category not found")

	// ErrBookingExists is returned when creating a booking whose id is taken.
	ErrBookingExists = errors.New("booking already exists")

	// ErrNotPending is returned when a transition requires status=pending
	// and the booking has already moved on.
	ErrNotPending = errors.New("booking is not pending")

	// ErrStoreRequired is returned when an operation needs a store that was not wired.
	ErrStoreRequired = errors.New("operation requires a store")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the offending input field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConfigurationError names the configuration key that could not be resolved.
type ConfigurationError struct {
	Key     string
	Message string
}

func NewConfigurationError(key, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Key: key, Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Key, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsConflict returns true if the error reports a lost state transition or a
// taken booking id.
func IsConflict(err error) bool {
	return errors.Is(err, ErrNotPending) || errors.Is(err, ErrBookingExists)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}
