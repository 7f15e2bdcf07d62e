package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Justype/condorlink/internal/remote"
)

// fakeClient is an in-memory remote.Client that records every call.
type fakeClient struct {
	files    map[string]string
	dirs     []string
	commands []string
	closes   int

	submitOut  remote.CmdOut
	versionOut remote.CmdOut
	lookup     map[string]string
	mkdirFail  map[string]error
	execErr    error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		files:      make(map[string]string),
		submitOut:  remote.CmdOut{Stdout: "Submitting job(s).\n1 job(s) submitted to cluster 4242.\n"},
		versionOut: remote.CmdOut{Stdout: "$CondorVersion: 23.0.3 2024-01-04 BuildID: 700000 $\n$CondorPlatform: x86_64_AlmaLinux9 $\n"},
		lookup:     map[string]string{"python": "/usr/bin/python"},
	}
}

func (c *fakeClient) Exec(_ context.Context, cmd string, _ io.Reader) (*remote.CmdOut, error) {
	c.commands = append(c.commands, cmd)
	if c.closes > 0 {
		return nil, remote.ErrClosed
	}
	if c.execErr != nil {
		return nil, c.execErr
	}
	switch {
	case strings.HasPrefix(cmd, "command -v "):
		name := strings.TrimPrefix(cmd, "command -v ")
		if p, ok := c.lookup[name]; ok {
			return &remote.CmdOut{Stdout: p + "\n"}, nil
		}
		return &remote.CmdOut{ExitCode: 1}, nil
	case strings.HasSuffix(cmd, " -version"):
		out := c.versionOut
		return &out, nil
	case strings.HasPrefix(cmd, "cd "):
		out := c.submitOut
		return &out, nil
	case strings.HasPrefix(cmd, "rm -f "):
		delete(c.files, strings.TrimPrefix(cmd, "rm -f "))
		return &remote.CmdOut{}, nil
	}
	return nil, fmt.Errorf("unexpected command %q", cmd)
}

func (c *fakeClient) WriteFile(_ context.Context, path string, data []byte) error {
	if c.closes > 0 {
		return remote.ErrClosed
	}
	if _, exists := c.files[path]; exists {
		return remote.NewRemoteFilesystemError("write", path, "cannot overwrite existing file", errors.New("exit status 1"))
	}
	c.files[path] = string(data)
	return nil
}

func (c *fakeClient) MkdirAll(_ context.Context, path string) error {
	if err := c.mkdirFail[path]; err != nil {
		return err
	}
	c.dirs = append(c.dirs, path)
	return nil
}

func (c *fakeClient) Close() error {
	c.closes++
	return nil
}

// wrote reports whether any submit file was written.
func (c *fakeClient) wrote() bool {
	return len(c.files) > 0
}

// submitCommands returns the condor_submit invocations.
func (c *fakeClient) submitCommands() []string {
	var out []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, "cd ") {
			out = append(out, cmd)
		}
	}
	return out
}

type fakeDialer struct {
	client *fakeClient
	err    error
	dials  int
}

func (d *fakeDialer) Dial(context.Context, remote.Target) (remote.Client, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	return d.client, nil
}
