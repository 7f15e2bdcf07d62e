package remote

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestCmdOutCombined(t *testing.T) {
	tests := []struct {
		out  CmdOut
		want string
	}{
		{CmdOut{Stdout: "a\n"}, "a\n"},
		{CmdOut{Stderr: "b\n"}, "b\n"},
		{CmdOut{Stdout: "a\n", Stderr: "b\n"}, "a\nb\n"},
		{CmdOut{Stdout: "a", Stderr: "b"}, "a\nb"},
	}
	for _, tt := range tests {
		if got := tt.out.Combined(); got != tt.want {
			t.Errorf("%+v.Combined() = %q; want %q", tt.out, got, tt.want)
		}
	}
}

func TestTargetAddr(t *testing.T) {
	target := Target{Host: "submit.example.org", User: "alice", Port: 2222}
	if got, want := target.Addr(), "submit.example.org:2222"; got != want {
		t.Errorf("Addr() = %q; want %q", got, want)
	}
	if got, want := target.String(), "alice@submit.example.org:2222"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
	v6 := Target{Host: "::1", Port: 22}
	if got, want := v6.Addr(), "[::1]:22"; got != want {
		t.Errorf("Addr() = %q; want %q", got, want)
	}
}

// scriptedClient answers Exec with a fixed result and records what it saw.
type scriptedClient struct {
	out   *CmdOut
	err   error
	cmd   string
	stdin string
}

func (c *scriptedClient) Exec(_ context.Context, cmd string, stdin io.Reader) (*CmdOut, error) {
	c.cmd = cmd
	if stdin != nil {
		b, _ := io.ReadAll(stdin)
		c.stdin = string(b)
	}
	return c.out, c.err
}

func (c *scriptedClient) WriteFile(context.Context, string, []byte) error { return nil }
func (c *scriptedClient) MkdirAll(context.Context, string) error          { return nil }
func (c *scriptedClient) Close() error                                    { return nil }

func TestRunFileOp(t *testing.T) {
	ctx := context.Background()

	ok := &scriptedClient{out: &CmdOut{}}
	if err := runFileOp(ctx, ok, "write", "/p/a.sub", writeCommand("/p/a.sub"), strings.NewReader("queue\n")); err != nil {
		t.Fatalf("runFileOp() error = %v", err)
	}
	if ok.stdin != "queue\n" {
		t.Errorf("stdin = %q; want %q", ok.stdin, "queue\n")
	}

	exists := &scriptedClient{out: &CmdOut{ExitCode: 1, Stderr: "sh: /p/a.sub: cannot overwrite existing file\n"}}
	err := runFileOp(ctx, exists, "write", "/p/a.sub", writeCommand("/p/a.sub"), nil)
	var fe *RemoteFilesystemError
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v; want *RemoteFilesystemError", err)
	}
	if fe.Op != "write" || fe.Path != "/p/a.sub" {
		t.Errorf("error = %+v", fe)
	}
	if !strings.Contains(fe.Output, "cannot overwrite") {
		t.Errorf("Output = %q; want remote stderr", fe.Output)
	}

	broken := &scriptedClient{err: ErrClosed}
	err = runFileOp(ctx, broken, "mkdir", "/p", mkdirCommand("/p"), nil)
	if !IsRemoteFilesystemError(err) || !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v; want RemoteFilesystemError wrapping ErrClosed", err)
	}
}

func TestErrorHelpers(t *testing.T) {
	err := NewConnectionError("h:22", "u", ErrNoAuthMethod)
	if !IsConnectionError(err) || !errors.Is(err, ErrNoAuthMethod) {
		t.Errorf("ConnectionError helpers failed for %v", err)
	}
	if IsConnectionError(errors.New("other")) {
		t.Error("IsConnectionError(plain) = true")
	}
	if got := err.Error(); !strings.Contains(got, "u@h:22") {
		t.Errorf("Error() = %q", got)
	}
}
