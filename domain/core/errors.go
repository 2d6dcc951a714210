package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrTemplateNotFound = fmt.Errorf("%w: task template", ErrNotFound)
	ErrTaskNotFound     = fmt.Errorf("%w: generated task", ErrNotFound)
	ErrProviderNotFound = fmt.Errorf("%w: data provider", ErrNotFound)
	ErrReportNotFound   = fmt.Errorf("%w: task report", ErrNotFound)

	// Temporal integrity errors
	ErrLookaheadViolation = errors.New("lookahead violation: record dated after simulation clock")
	ErrClockNotSet        = errors.New("simulation clock not set")

	// Generation errors. An unsatisfiable template is the terminal form of
	// insufficient data, so it matches both sentinels.
	ErrInsufficientData      = errors.New("insufficient data to satisfy template")
	ErrTemplateUnsatisfiable = fmt.Errorf("template unsatisfiable: fallback bindings exhausted: %w", ErrInsufficientData)

	// Evaluation errors
	ErrSubmissionTimeout   = errors.New("submission collection timed out")
	ErrDebateTimeout       = errors.New("debate rebuttal timed out")
	ErrMalformedSubmission = errors.New("malformed submission")

	// Configuration errors (fatal at startup only)
	ErrConfigInvalid = errors.New("invalid run configuration")
)

// Error constructors with context
func NewLookaheadError(recordID string, effective, asOf string) error {
	return fmt.Errorf("%w: record %s effective %s > as-of %s", ErrLookaheadViolation, recordID, effective, asOf)
}

func NewInsufficientDataError(slot string, provider string) error {
	return fmt.Errorf("%w: slot %q via provider %q", ErrInsufficientData, slot, provider)
}

func NewConfigError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrConfigInvalid, field, reason)
}

// Error checking helpers
func IsLookaheadError(err error) bool {
	return errors.Is(err, ErrLookaheadViolation)
}

func IsGenerationError(err error) bool {
	return errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrTemplateUnsatisfiable)
}

// IsTaskScopedError reports whether err is isolated to a single task:
// the run continues and the task still yields a report entry.
func IsTaskScopedError(err error) bool {
	return IsGenerationError(err) ||
		errors.Is(err, ErrSubmissionTimeout) ||
		errors.Is(err, ErrDebateTimeout) ||
		errors.Is(err, ErrMalformedSubmission)
}
