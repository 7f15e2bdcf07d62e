package remote

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Justype/condorlink/internal/utils"
	"github.com/kevinburke/ssh_config"
)

// DefaultPort is the SSH port used when neither the caller nor ~/.ssh/config sets one.
const DefaultPort = 22

// default keys tried when ~/.ssh/config names none
var defaultIdentityFiles = []string{
	"~/.ssh/id_ed25519",
	"~/.ssh/id_ecdsa",
	"~/.ssh/id_rsa",
}

// DefaultSSHConfigPath returns ~/.ssh/config.
func DefaultSSHConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "config")
}

// LoadSSHConfig reads an OpenSSH client configuration.
// A missing file yields an empty configuration.
func LoadSSHConfig(path string) (*ssh_config.Config, error) {
	if path == "" {
		return &ssh_config.Config{}, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &ssh_config.Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open ssh config %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh config %s: %w", path, err)
	}
	return cfg, nil
}

// ResolveTarget applies HostName, User, Port and IdentityFile from cfg to the
// alias host. Non-empty user and non-zero port given by the caller win over
// the file. Identity files from cfg come first, followed by extra.
func ResolveTarget(cfg *ssh_config.Config, host, user string, port int, extra ...string) (Target, error) {
	if strings.TrimSpace(host) == "" {
		return Target{}, errors.New("host must not be empty")
	}
	if cfg == nil {
		cfg = &ssh_config.Config{}
	}

	target := Target{Host: host, User: user, Port: port}

	if hostname, _ := cfg.Get(host, "HostName"); hostname != "" {
		target.Host = strings.ReplaceAll(hostname, "%h", host)
	}
	if target.User == "" {
		target.User, _ = cfg.Get(host, "User")
	}
	if target.Port == 0 {
		if p, _ := cfg.Get(host, "Port"); p != "" {
			n, err := strconv.Atoi(p)
			if err != nil {
				return Target{}, fmt.Errorf("invalid Port %q for host %s in ssh config", p, host)
			}
			target.Port = n
		}
	}

	if target.User == "" {
		current, err := currentUser()
		if err != nil {
			return Target{}, fmt.Errorf("cannot determine login user: %w", err)
		}
		target.User = current
	}
	if target.Port == 0 {
		target.Port = DefaultPort
	}
	if target.Port < 0 || target.Port > 65535 {
		return Target{}, fmt.Errorf("invalid port %d", target.Port)
	}

	home, _ := os.UserHomeDir()
	files, _ := cfg.GetAll(host, "IdentityFile")
	files = append(files, extra...)
	if len(files) == 0 {
		files = defaultIdentityFiles
	}
	for _, f := range files {
		target.IdentityFiles = append(target.IdentityFiles, utils.ExpandHome(f, home))
	}

	utils.PrintDebug("Resolved %s to %s", host, target)
	return target, nil
}

func currentUser() (string, error) {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username, nil
	}
	if name := os.Getenv("USER"); name != "" {
		return name, nil
	}
	return "", errors.New("no current user")
}
