package condor

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidDescription indicates a submit description could not be parsed
	ErrInvalidDescription = errors.New("invalid submit description")

	// ErrEmptyGrid indicates a grid parameter has no values
	ErrEmptyGrid = errors.New("grid parameter has no values")
)

// ConfigurationError represents an invalid resource configuration.
// It is raised locally and never reaches the remote host.
type ConfigurationError struct {
	Field  string // Field that failed validation
	Value  string // Offending value (may be empty)
	Reason string // Why the value was rejected
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid configuration: %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// JobError represents an invalid job description.
type JobError struct {
	Field  string // Field that failed validation
	Value  string // Offending value (may be empty)
	Reason string // Why the value was rejected
}

func (e *JobError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid job: %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid job: %s: %s", e.Field, e.Reason)
}

// ParseError represents an error parsing a submit description
type ParseError struct {
	Line    int    // Line number where error occurred
	Content string // Line content
	Reason  string // Reason for parse failure
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("submit description parse error at line %d (%s): %s",
		e.Line, e.Content, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidDescription
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(field string, value string, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// NewJobError creates a new JobError
func NewJobError(field string, value string, reason string) *JobError {
	return &JobError{Field: field, Value: value, Reason: reason}
}

// IsConfigurationError checks if an error is a ConfigurationError
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsJobError checks if an error is a JobError
func IsJobError(err error) bool {
	var je *JobError
	return errors.As(err, &je)
}
