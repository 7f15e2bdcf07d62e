// Package session owns one connection to an HTCondor submit host and turns
// jobs into remote submissions.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/Justype/condorlink/internal/condor"
	"github.com/Justype/condorlink/internal/remote"
	"github.com/Justype/condorlink/internal/utils"
	"github.com/alessio/shellescape"
)

// Session is bound to one submit host and one project space.
// It is not safe for concurrent use.
type Session struct {
	client       remote.Client
	target       remote.Target
	projectSpace string

	submitBin        string
	envKeys          []string
	dryRun           bool
	removeSubmitFile bool
	now              func() time.Time

	token  string
	seq    int
	closed bool
}

// Open connects to target and ensures projectSpace exists remotely.
// The connection is closed again if the project space cannot be created.
func Open(ctx context.Context, dialer remote.Dialer, target remote.Target, projectSpace string, opts ...Option) (*Session, error) {
	projectSpace = strings.TrimSpace(projectSpace)
	if projectSpace == "" {
		return nil, ErrNoProjectSpace
	}

	s := &Session{
		target:       target,
		projectSpace: path.Clean(projectSpace),
		submitBin:    DefaultSubmitBin,
		now:          time.Now,
		token:        newSessionToken(),
	}
	for _, opt := range opts {
		opt(s)
	}

	client, err := dialer.Dial(ctx, target)
	if err != nil {
		if !remote.IsConnectionError(err) {
			err = remote.NewConnectionError(target.Addr(), target.User, err)
		}
		return nil, err
	}
	s.client = client

	if err := s.mkdir(ctx, s.projectSpace); err != nil {
		client.Close()
		return nil, err
	}
	utils.PrintDebug("Session open on %s in %s", target.Host, s.projectSpace)
	return s, nil
}

// With opens a session, runs fn and closes the session on every exit path,
// including a panic in fn.
func With(ctx context.Context, dialer remote.Dialer, target remote.Target, projectSpace string, fn func(*Session) error, opts ...Option) (err error) {
	s, err := Open(ctx, dialer, target, projectSpace, opts...)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := s.Close()
		if r := recover(); r != nil {
			panic(r)
		}
		if closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close session: %w", closeErr))
		}
	}()
	return fn(s)
}

// ProjectSpace returns the remote working directory.
func (s *Session) ProjectSpace() string { return s.projectSpace }

// Target returns the submit host.
func (s *Session) Target() remote.Target { return s.target }

// Submit renders job and cfg into a submit description, writes it into the
// project space and runs condor_submit on it. Each call is an independent
// submission.
func (s *Session) Submit(ctx context.Context, job *condor.Job, cfg *condor.Configuration) (*Result, error) {
	if s.closed {
		return nil, remote.ErrClosed
	}
	if job == nil || cfg == nil {
		return nil, errors.New("job and configuration must not be nil")
	}

	artifactDir := s.resolve(job.ArtifactDir())
	if err := s.mkdir(ctx, artifactDir); err != nil {
		return nil, err
	}
	job = job.WithArtifactDir(artifactDir)

	executable, err := s.lookupExecutable(ctx, job)
	if err != nil {
		return nil, err
	}
	job = job.WithExecutable(executable)

	desc := condor.BuildDescription(job, cfg, condor.DescriptionOptions{
		ProjectSpace: s.projectSpace,
		Env:          s.environment(),
	})
	return s.submit(ctx, job.Tag(), desc)
}

// SubmitDescription submits a prepared description, e.g. one read with
// condor.ParseDescription. tag only names the remote file.
func (s *Session) SubmitDescription(ctx context.Context, tag string, desc *condor.Description) (*Result, error) {
	if s.closed {
		return nil, remote.ErrClosed
	}
	if desc == nil {
		return nil, ErrNilDescription
	}
	return s.submit(ctx, tag, desc)
}

// SchedulerVersion returns the HTCondor version reported by the submit host.
func (s *Session) SchedulerVersion(ctx context.Context) (string, error) {
	if s.closed {
		return "", remote.ErrClosed
	}
	out, err := s.client.Exec(ctx, shellescape.Quote(s.submitBin)+" -version", nil)
	if err != nil {
		return "", err
	}
	if out.ExitCode != 0 {
		return "", fmt.Errorf("%s -version exited with status %d: %s",
			s.submitBin, out.ExitCode, strings.TrimSpace(out.Combined()))
	}
	return parseCondorVersion(out.Stdout)
}

// Close closes the connection. Calling it again is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *Session) submit(ctx context.Context, tag string, desc *condor.Description) (*Result, error) {
	submitFile := path.Join(s.projectSpace, s.nextFileName(tag))
	if err := s.client.WriteFile(ctx, submitFile, desc.Bytes()); err != nil {
		if !remote.IsRemoteFilesystemError(err) {
			err = remote.NewRemoteFilesystemError("write", submitFile, "", err)
		}
		return nil, err
	}
	utils.PrintDebug("Wrote %s", submitFile)

	if s.dryRun {
		return &Result{SubmitFile: submitFile, DryRun: true}, nil
	}

	cmd := fmt.Sprintf("cd %s && %s %s",
		shellescape.Quote(s.projectSpace), shellescape.Quote(s.submitBin), shellescape.Quote(submitFile))
	out, err := s.client.Exec(ctx, cmd, nil)
	if err != nil {
		output := ""
		if out != nil {
			output = out.Combined()
		}
		return nil, NewSubmissionError(tag, submitFile, -1, output, err)
	}
	if out.ExitCode != 0 {
		return nil, NewSubmissionError(tag, submitFile, out.ExitCode, out.Combined(),
			fmt.Errorf("%s exited with status %d", s.submitBin, out.ExitCode))
	}

	result := &Result{SubmitFile: submitFile, Output: out.Stdout}
	if cluster, count, ok := condor.ParseSubmitOutput(out.Stdout); ok {
		result.ClusterID, result.Count = cluster, count
	}

	if s.removeSubmitFile {
		rm, err := s.client.Exec(ctx, "rm -f "+shellescape.Quote(submitFile), nil)
		if err != nil || rm.ExitCode != 0 {
			utils.PrintDebug("Could not remove %s", submitFile)
		}
	}
	return result, nil
}

// nextFileName returns "<tag>-<UTC timestamp>-<token>-<seq>.sub". token is
// random per session and seq increases with every call, so names stay
// distinct across sessions started in the same second and within a session
// when the clock does not advance.
func (s *Session) nextFileName(tag string) string {
	if tag == "" {
		tag = "job"
	}
	s.seq++
	return fmt.Sprintf("%s-%s-%s-%03d.sub", tag, s.now().UTC().Format("20060102T150405Z"), s.token, s.seq)
}

// newSessionToken returns 8 random hex digits.
func newSessionToken() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%08x", uint32(time.Now().UnixNano())^uint32(os.Getpid()))
	}
	return hex.EncodeToString(b)
}

// resolve makes dir absolute under the project space.
func (s *Session) resolve(dir string) string {
	if path.IsAbs(dir) {
		return path.Clean(dir)
	}
	return path.Join(s.projectSpace, dir)
}

func (s *Session) mkdir(ctx context.Context, dir string) error {
	if err := s.client.MkdirAll(ctx, dir); err != nil {
		if !remote.IsRemoteFilesystemError(err) {
			err = remote.NewRemoteFilesystemError("mkdir", dir, "", err)
		}
		return err
	}
	return nil
}

// lookupExecutable resolves a bare command name with the remote shell's
// PATH. Paths are used as given.
func (s *Session) lookupExecutable(ctx context.Context, job *condor.Job) (string, error) {
	exe := job.Executable()
	if strings.Contains(exe, "/") {
		return exe, nil
	}
	out, err := s.client.Exec(ctx, "command -v "+shellescape.Quote(exe), nil)
	if err != nil {
		return "", NewSubmissionError(job.Tag(), "", -1, "", err)
	}
	resolved := strings.TrimSpace(strings.SplitN(out.Stdout, "\n", 2)[0])
	if out.ExitCode != 0 || !path.IsAbs(resolved) {
		return "", NewSubmissionError(job.Tag(), "", out.ExitCode, out.Combined(),
			fmt.Errorf("%w: %s", ErrExecutableNotFound, exe))
	}
	utils.PrintDebug("Resolved %s to %s", exe, resolved)
	return resolved, nil
}

func (s *Session) environment() []condor.EnvVar {
	var env []condor.EnvVar
	for _, key := range s.envKeys {
		value, ok := os.LookupEnv(key)
		if !ok {
			utils.PrintDebug("Environment variable %s is not set, skipping", key)
			continue
		}
		env = append(env, condor.EnvVar{Name: key, Value: value})
	}
	return env
}

// Example: "$CondorVersion: 23.0.3 2024-01-04 BuildID: 123 $"
var condorVersionRe = regexp.MustCompile(`\$CondorVersion:\s*(\d+\.\d+\.\d+)`)

func parseCondorVersion(output string) (string, error) {
	m := condorVersionRe.FindStringSubmatch(output)
	if m == nil {
		return "", fmt.Errorf("unrecognized condor version output: %q", strings.TrimSpace(output))
	}
	return m[1], nil
}
