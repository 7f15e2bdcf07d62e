package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/alessio/shellescape"
)

// CmdOut is the outcome of one remote command.
type CmdOut struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Combined returns stdout followed by stderr.
func (o *CmdOut) Combined() string {
	if o.Stderr == "" {
		return o.Stdout
	}
	if o.Stdout == "" || strings.HasSuffix(o.Stdout, "\n") {
		return o.Stdout + o.Stderr
	}
	return o.Stdout + "\n" + o.Stderr
}

// Client runs commands and writes files on the submit host.
// A non-zero exit status is reported through CmdOut, not as an error.
type Client interface {
	Exec(ctx context.Context, cmd string, stdin io.Reader) (*CmdOut, error)
	WriteFile(ctx context.Context, path string, data []byte) error
	MkdirAll(ctx context.Context, path string) error
	Close() error
}

// Dialer opens a Client for a Target.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Client, error)
}

// Target identifies the submit host.
type Target struct {
	Host          string   // Host name or address
	User          string   // Login user
	Port          int      // SSH port
	IdentityFiles []string // Private keys to try, in order
}

// Addr returns host:port.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

func (t Target) String() string {
	return fmt.Sprintf("%s@%s", t.User, t.Addr())
}

// mkdirCommand and writeCommand are shared by every Client implementation.
func mkdirCommand(path string) string {
	return "mkdir -p " + shellescape.Quote(path)
}

// writeCommand creates path exclusively and fills it from stdin.
// noclobber makes the redirection fail if path already exists.
func writeCommand(path string) string {
	return "set -C && cat > " + shellescape.Quote(path)
}
