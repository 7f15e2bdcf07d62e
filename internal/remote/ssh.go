package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"time"

	"github.com/Justype/condorlink/internal/utils"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// DefaultConnectTimeout bounds the TCP connect and SSH handshake.
const DefaultConnectTimeout = 30 * time.Second

// SSHDialer opens SSH connections to the submit host.
//
// Authentication methods are offered in order: ssh-agent, identity files,
// password, keyboard-interactive. The last two and encrypted keys ask
// Credentials; with no provider they are skipped.
type SSHDialer struct {
	KnownHostsFile string             // Defaults to ~/.ssh/known_hosts
	HostKeyPolicy  HostKeyPolicy      // Defaults to HostKeyAcceptNew
	Credentials    CredentialProvider // Optional interactive fallback
	Timeout        time.Duration      // Defaults to DefaultConnectTimeout
	AgentSocket    string             // Defaults to $SSH_AUTH_SOCK; "-" disables the agent
}

// Dial connects and authenticates. Any failure is a *ConnectionError.
func (d *SSHDialer) Dial(ctx context.Context, target Target) (Client, error) {
	addr := target.Addr()
	fail := func(err error) (Client, error) {
		return nil, NewConnectionError(addr, target.User, err)
	}

	policy := d.HostKeyPolicy
	if policy == "" {
		policy = HostKeyAcceptNew
	}
	knownHosts := d.KnownHostsFile
	if knownHosts == "" {
		knownHosts = DefaultKnownHostsPath()
	}
	verifier, err := newHostKeyVerifier(knownHosts, policy)
	if err != nil {
		return fail(err)
	}

	auth, cleanup := d.authMethods(target)
	defer cleanup()
	if len(auth) == 0 {
		return fail(ErrNoAuthMethod)
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	config := &ssh.ClientConfig{
		User:              target.User,
		Auth:              auth,
		HostKeyCallback:   verifier.Callback(),
		HostKeyAlgorithms: verifier.HostKeyAlgorithms(addr),
		Timeout:           timeout,
	}

	utils.PrintDebug("Connecting to %s", utils.StyleName(target.String()))
	nd := net.Dialer{Timeout: timeout}
	conn, err := nd.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fail(err)
	}

	// handshake is bounded by the timeout and aborted when ctx ends
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	_ = conn.SetDeadline(time.Now().Add(timeout))
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	stopped := stop()
	if err != nil {
		conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(ctxErr)
		}
		return fail(err)
	}
	if !stopped {
		c.Close()
		return fail(ctx.Err())
	}
	_ = conn.SetDeadline(time.Time{})

	utils.PrintDebug("Connected to %s", target.String())
	return &sshClient{client: ssh.NewClient(c, chans, reqs), target: target}, nil
}

// authMethods builds the ordered auth method list. cleanup releases the agent connection.
func (d *SSHDialer) authMethods(target Target) ([]ssh.AuthMethod, func()) {
	var methods []ssh.AuthMethod
	cleanup := func() {}

	sock := d.AgentSocket
	if sock == "" {
		sock = os.Getenv("SSH_AUTH_SOCK")
	}
	if sock != "" && sock != "-" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
			cleanup = func() { conn.Close() }
		} else {
			utils.PrintDebug("ssh-agent unavailable: %v", err)
		}
	}

	var signers []ssh.Signer
	for _, path := range target.IdentityFiles {
		signer, err := d.loadKey(path)
		if err != nil {
			utils.PrintDebug("Skipping identity %s: %v", path, err)
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}

	if d.Credentials != nil {
		password := cachedPassword(d.Credentials, target.User, target.Host)
		methods = append(methods,
			ssh.PasswordCallback(password),
			ssh.KeyboardInteractive(func(name, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					if echos[i] {
						continue
					}
					secret, err := password()
					if err != nil {
						return nil, err
					}
					answers[i] = secret
				}
				return answers, nil
			}),
		)
	}
	return methods, cleanup
}

// cachedPassword asks creds once; password and keyboard-interactive share the answer.
func cachedPassword(creds CredentialProvider, user, host string) func() (string, error) {
	var (
		asked  bool
		secret string
		err    error
	)
	return func() (string, error) {
		if !asked {
			asked = true
			secret, err = creds.Password(user, host)
		}
		return secret, err
	}
}

func (d *SSHDialer) loadKey(path string) (ssh.Signer, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("not found")
		}
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(pem)
	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return signer, err
	}
	if d.Credentials == nil {
		return nil, fmt.Errorf("key is encrypted and no credential provider is set")
	}
	passphrase, err := d.Credentials.Passphrase(path)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKeyWithPassphrase(pem, []byte(passphrase))
}

// sshClient is a Client backed by one SSH connection.
// Each command runs in its own SSH session.
type sshClient struct {
	client *ssh.Client
	target Target
	closed bool
}

func (c *sshClient) Exec(ctx context.Context, cmd string, stdin io.Reader) (*CmdOut, error) {
	if c.closed {
		return nil, ErrClosed
	}
	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("error getting ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdin = stdin
	session.Stdout = &stdout
	session.Stderr = &stderr

	utils.PrintDebug("[%s] %s", c.target.Host, utils.StyleCommand(cmd))
	done := make(chan error, 1)
	go func() { done <- session.Run(shellCommand(cmd)) }()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		session.Close()
		return nil, ctx.Err()
	case err = <-done:
	}

	out := &CmdOut{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return out, fmt.Errorf("remote command failed: %w", err)
		}
		out.ExitCode = exitErr.ExitStatus()
	}
	return out, nil
}

func (c *sshClient) WriteFile(ctx context.Context, path string, data []byte) error {
	return runFileOp(ctx, c, "write", path, writeCommand(path), bytes.NewReader(data))
}

func (c *sshClient) MkdirAll(ctx context.Context, path string) error {
	return runFileOp(ctx, c, "mkdir", path, mkdirCommand(path), nil)
}

func (c *sshClient) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	utils.PrintDebug("Closing connection to %s", c.target.Host)
	return c.client.Close()
}

// runFileOp runs a filesystem command and maps failure to *RemoteFilesystemError.
func runFileOp(ctx context.Context, c Client, op, path, cmd string, stdin io.Reader) error {
	out, err := c.Exec(ctx, cmd, stdin)
	if err != nil {
		output := ""
		if out != nil {
			output = out.Combined()
		}
		return NewRemoteFilesystemError(op, path, output, err)
	}
	if out.ExitCode != 0 {
		return NewRemoteFilesystemError(op, path, out.Combined(), fmt.Errorf("exit status %d", out.ExitCode))
	}
	return nil
}
