package remote

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/Justype/condorlink/internal/utils"
	"github.com/skeema/knownhosts"
	"golang.org/x/crypto/ssh"
)

// HostKeyPolicy decides what happens when the submit host's key is not in known_hosts.
type HostKeyPolicy string

const (
	// HostKeyStrict rejects unknown hosts.
	HostKeyStrict HostKeyPolicy = "strict"
	// HostKeyAcceptNew records unknown hosts in known_hosts and continues.
	HostKeyAcceptNew HostKeyPolicy = "accept-new"
	// HostKeyInsecure skips verification entirely.
	HostKeyInsecure HostKeyPolicy = "insecure"
)

// ParseHostKeyPolicy parses a policy name. Empty selects HostKeyAcceptNew.
func ParseHostKeyPolicy(s string) (HostKeyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "accept-new", "accept_new", "auto":
		return HostKeyAcceptNew, nil
	case "strict", "yes":
		return HostKeyStrict, nil
	case "insecure", "no", "off":
		return HostKeyInsecure, nil
	}
	return "", fmt.Errorf("unknown host key policy %q (want strict, accept-new or insecure)", s)
}

// DefaultKnownHostsPath returns ~/.ssh/known_hosts.
func DefaultKnownHostsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "known_hosts")
}

// hostKeyVerifier wraps a known_hosts database with a policy.
type hostKeyVerifier struct {
	path   string
	policy HostKeyPolicy
	db     knownhosts.HostKeyCallback
}

func newHostKeyVerifier(path string, policy HostKeyPolicy) (*hostKeyVerifier, error) {
	v := &hostKeyVerifier{path: path, policy: policy}
	if policy == HostKeyInsecure {
		return v, nil
	}
	if path == "" {
		return nil, errors.New("known_hosts path is not set")
	}

	if policy == HostKeyAcceptNew && !utils.FileExists(path) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}
		f.Close()
	}

	db, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", path, err)
	}
	v.db = db
	return v, nil
}

// Callback returns the ssh.HostKeyCallback enforcing the policy.
func (v *hostKeyVerifier) Callback() ssh.HostKeyCallback {
	if v.policy == HostKeyInsecure {
		return ssh.InsecureIgnoreHostKey()
	}
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := v.db(hostname, remote, key)
		switch {
		case err == nil:
			return nil
		case knownhosts.IsHostKeyChanged(err):
			return fmt.Errorf("host key for %s has changed (possible man-in-the-middle attack): %w", hostname, err)
		case knownhosts.IsHostUnknown(err) && v.policy == HostKeyAcceptNew:
			if werr := v.record(hostname, remote, key); werr != nil {
				return werr
			}
			utils.PrintDebug("Added %s (%s) to %s", hostname, key.Type(), v.path)
			return nil
		case knownhosts.IsHostUnknown(err):
			return fmt.Errorf("host %s is not in %s: %w", hostname, v.path, err)
		}
		return err
	}
}

// HostKeyAlgorithms lists the key types already known for addr so the
// handshake negotiates a key that can be verified.
func (v *hostKeyVerifier) HostKeyAlgorithms(addr string) []string {
	if v.db == nil {
		return nil
	}
	return v.db.HostKeyAlgorithms(addr)
}

func (v *hostKeyVerifier) record(hostname string, remote net.Addr, key ssh.PublicKey) error {
	f, err := os.OpenFile(v.path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", v.path, err)
	}
	defer f.Close()
	if err := knownhosts.WriteKnownHost(f, hostname, remote, key); err != nil {
		return fmt.Errorf("failed to record host key for %s: %w", hostname, err)
	}
	db, err := knownhosts.New(v.path)
	if err != nil {
		return fmt.Errorf("failed to reload known hosts %s: %w", v.path, err)
	}
	v.db = db
	return nil
}
