package session

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNoProjectSpace indicates a session was opened without a project space
	ErrNoProjectSpace = errors.New("project space must not be empty")

	// ErrNilDescription indicates SubmitDescription was given no description
	ErrNilDescription = errors.New("submit description is nil")

	// ErrExecutableNotFound indicates a bare executable name could not be resolved remotely
	ErrExecutableNotFound = errors.New("executable not found on submit host")
)

// SubmissionError represents a failed condor_submit invocation.
// Output carries the remote command's stdout and stderr verbatim.
type SubmissionError struct {
	Tag        string // Job tag (may be empty)
	SubmitFile string // Remote submit file path
	ExitCode   int    // Remote exit status, -1 if the command did not complete
	Output     string // Captured remote output
	Err        error  // Underlying error
}

func (e *SubmissionError) Error() string {
	name := e.Tag
	if name == "" {
		name = e.SubmitFile
	}
	if e.Output != "" {
		return fmt.Sprintf("HTCondor submission failed for job %s: %v\nOutput: %s",
			name, e.Err, e.Output)
	}
	return fmt.Sprintf("HTCondor submission failed for job %s: %v", name, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// NewSubmissionError creates a new SubmissionError
func NewSubmissionError(tag, submitFile string, exitCode int, output string, err error) *SubmissionError {
	return &SubmissionError{
		Tag:        tag,
		SubmitFile: submitFile,
		ExitCode:   exitCode,
		Output:     output,
		Err:        err,
	}
}

// IsSubmissionError checks if an error is a SubmissionError
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}
