package remote

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// ErrClosed indicates an operation on a closed connection
	ErrClosed = errors.New("connection is closed")

	// ErrNoAuthMethod indicates no usable SSH authentication method was found
	ErrNoAuthMethod = errors.New("no SSH authentication method available")

	// ErrNotTerminal indicates an interactive prompt was requested without a TTY
	ErrNotTerminal = errors.New("stdin is not a terminal")
)

// ConnectionError represents a failure to establish or authenticate a
// connection to the submit host.
type ConnectionError struct {
	Host string // Host address (host:port)
	User string // Login user
	Err  error  // Underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s@%s: %v", e.User, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RemoteFilesystemError represents a failed file operation on the submit host.
type RemoteFilesystemError struct {
	Op     string // Operation, e.g. "mkdir" or "write"
	Path   string // Remote path
	Output string // Combined remote output, if any
	Err    error  // Underlying error
}

func (e *RemoteFilesystemError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "remote %s %s failed", e.Op, e.Path)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&sb, "\nOutput: %s", out)
	}
	return sb.String()
}

func (e *RemoteFilesystemError) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a new ConnectionError
func NewConnectionError(host, user string, err error) *ConnectionError {
	return &ConnectionError{Host: host, User: user, Err: err}
}

// NewRemoteFilesystemError creates a new RemoteFilesystemError
func NewRemoteFilesystemError(op, path, output string, err error) *RemoteFilesystemError {
	return &RemoteFilesystemError{Op: op, Path: path, Output: output, Err: err}
}

// IsConnectionError checks if an error is a ConnectionError
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsRemoteFilesystemError checks if an error is a RemoteFilesystemError
func IsRemoteFilesystemError(err error) bool {
	var fe *RemoteFilesystemError
	return errors.As(err, &fe)
}
