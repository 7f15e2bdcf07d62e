package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Justype/condorlink/internal/config"
	"github.com/google/go-cmp/cmp"
	"github.com/kevinburke/ssh_config"
	"github.com/spf13/cobra"
)

func TestSSHConfigHosts(t *testing.T) {
	const sshConfig = `
Host gpu login
    HostName gpu-submit.example.org
    User alice

Host *.internal
    ProxyJump bastion

Host login
    Port 2222

Host *
    ServerAliveInterval 60
`
	cfg, err := ssh_config.Decode(strings.NewReader(sshConfig))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if diff := cmp.Diff([]string{"gpu", "login"}, sshConfigHosts(cfg)); diff != "" {
		t.Errorf("hosts mismatch (-want +got):\n%s", diff)
	}
}

func TestHostFlagCompletion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("Host gpu gateway login\n    User alice\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	saved := config.Global.SSHConfigFile
	config.Global.SSHConfigFile = path
	t.Cleanup(func() { config.Global.SSHConfigFile = saved })

	complete, ok := rootCmd.GetFlagCompletionFunc("host")
	if !ok {
		t.Fatal("no completion registered for --host")
	}
	got, directive := complete(rootCmd, nil, "g")
	if diff := cmp.Diff([]string{"gateway", "gpu"}, got); diff != "" {
		t.Errorf("completions mismatch (-want +got):\n%s", diff)
	}
	if directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("directive = %v; want %v", directive, cobra.ShellCompDirectiveNoFileComp)
	}
}

func TestShellFromEnv(t *testing.T) {
	tests := map[string]string{
		"/bin/bash":           "bash",
		"/usr/bin/zsh":        "zsh",
		"/usr/local/bin/fish": "fish",
		"/usr/bin/pwsh":       "powershell",
		"":                    "bash",
	}
	for in, want := range tests {
		if got := shellFromEnv(in); got != want {
			t.Errorf("shellFromEnv(%q) = %q; want %q", in, got, want)
		}
	}
}
