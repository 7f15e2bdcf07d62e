package jobfile

import (
	"errors"
	"fmt"
)

// ErrNoJobs indicates a job file declares no jobs
var ErrNoJobs = errors.New("job file declares no jobs")

// FileError represents an invalid job file.
type FileError struct {
	Path string // Job file path ("" when read from a stream)
	Line int    // YAML line of the offending node, 0 if unknown
	Err  error  // Underlying error
}

func (e *FileError) Error() string {
	name := e.Path
	if name == "" {
		name = "<job file>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", name, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// IsFileError checks if an error is a FileError
func IsFileError(err error) bool {
	var fe *FileError
	return errors.As(err, &fe)
}
