/*
errors.go - Error types shared by the roster and leave engines

PURPOSE:
  The engine keeps a strict line between errors and business outcomes.
  A conflict, an override requirement, or a late request are VALUES on
  the verdict - never errors. Only two things use the error channel:

  1. InvalidRangeError  - malformed date range (end before start).
                          Always surfaced, never silently corrected.
  2. ConfigurationError - missing/invalid engine configuration (anchor
                          date, period length, crew threshold). These
                          are startup-class faults, not per-request
                          business cases.

USAGE:
  Callers match with errors.Is / errors.As:

    if errors.Is(err, roster.ErrInvalidRange) { ... }

    var cfgErr *roster.ConfigurationError
    if errors.As(err, &cfgErr) { log.Fatal(cfgErr) }
*/
package roster

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("invalid date range: end before start")

	// ErrConfiguration is returned for missing or invalid engine configuration.
	ErrConfiguration = errors.New("invalid engine configuration")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports an inverted date range.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: end %s before start %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// ConfigurationError reports a fatal configuration fault.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ValidateRange returns an InvalidRangeError when to < from.
// A zero-length range (from == to) is valid.
func ValidateRange(from, to Date) error {
	if to.Before(from) {
		return &InvalidRangeError{Start: from, End: to}
	}
	return nil
}
