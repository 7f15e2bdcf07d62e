package remote

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// CredentialProvider supplies secrets when key-based authentication is not enough.
type CredentialProvider interface {
	// Password returns the login password for user on host.
	Password(user, host string) (string, error)
	// Passphrase returns the passphrase protecting the private key at keyPath.
	Passphrase(keyPath string) (string, error)
}

// TerminalPrompt asks for secrets on the controlling terminal without echo.
type TerminalPrompt struct {
	In  *os.File  // Defaults to os.Stdin
	Out io.Writer // Prompt destination, defaults to os.Stderr
}

func (p TerminalPrompt) Password(user, host string) (string, error) {
	return p.read(fmt.Sprintf("%s@%s's password: ", user, host))
}

func (p TerminalPrompt) Passphrase(keyPath string) (string, error) {
	return p.read(fmt.Sprintf("Enter passphrase for key '%s': ", keyPath))
}

func (p TerminalPrompt) read(prompt string) (string, error) {
	in, out := p.In, p.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNotTerminal
	}
	fmt.Fprint(out, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read from terminal: %w", err)
	}
	return string(secret), nil
}

// StaticCredentials returns fixed secrets.
type StaticCredentials struct {
	Secret         string            // Login password
	KeyPassphrases map[string]string // Passphrase per key path
}

func (c StaticCredentials) Password(user, host string) (string, error) {
	if c.Secret == "" {
		return "", fmt.Errorf("no password configured for %s@%s", user, host)
	}
	return c.Secret, nil
}

func (c StaticCredentials) Passphrase(keyPath string) (string, error) {
	if p, ok := c.KeyPassphrases[keyPath]; ok {
		return p, nil
	}
	return "", fmt.Errorf("no passphrase configured for %s", keyPath)
}

// EnvCredentials reads the password from an environment variable or a
// secrets file. The variable wins when both are set.
type EnvCredentials struct {
	PasswordEnv   string // e.g. CONDORLINK_PASSWORD
	PasswordFile  string // e.g. /run/secrets/submit.pass
	PassphraseEnv string // Passphrase shared by all encrypted keys
}

func (c EnvCredentials) Password(user, host string) (string, error) {
	if c.PasswordEnv != "" {
		if v, ok := os.LookupEnv(c.PasswordEnv); ok {
			return v, nil
		}
	}
	if c.PasswordFile != "" {
		return readSecretFile(c.PasswordFile)
	}
	return "", fmt.Errorf("no password available for %s@%s", user, host)
}

func (c EnvCredentials) Passphrase(keyPath string) (string, error) {
	if c.PassphraseEnv != "" {
		if v, ok := os.LookupEnv(c.PassphraseEnv); ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("no passphrase available for %s", keyPath)
}

// readSecretFile returns the first line of path.
func readSecretFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Chain tries each provider in order and returns the first secret found.
type Chain []CredentialProvider

func (c Chain) Password(user, host string) (string, error) {
	var errs []error
	for _, p := range c {
		s, err := p.Password(user, host)
		if err == nil {
			return s, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("no password available for %s@%s", user, host)
	}
	return "", errors.Join(errs...)
}

func (c Chain) Passphrase(keyPath string) (string, error) {
	var errs []error
	for _, p := range c {
		s, err := p.Passphrase(keyPath)
		if err == nil {
			return s, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("no passphrase available for %s", keyPath)
	}
	return "", errors.Join(errs...)
}
