package cmd

import (
	"os"
	"sort"
	"strings"

	"github.com/Justype/condorlink/internal/config"
	"github.com/Justype/condorlink/internal/remote"
	"github.com/kevinburke/ssh_config"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for condorlink.

Besides commands and flags, --host completes the Host aliases of your
~/.ssh/config and job file arguments complete *.yaml files.

If no shell is given it is taken from $SHELL.`,
	Example: `  source <(condorlink completion bash)
  condorlink completion zsh > "${fpath[1]}/_condorlink"
  condorlink completion fish > ~/.config/fish/completions/condorlink.fish`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		shell := shellFromEnv(os.Getenv("SHELL"))
		if len(args) > 0 {
			shell = args[0]
		}
		out := cmd.OutOrStdout()
		switch shell {
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		default:
			return cmd.Root().GenBashCompletionV2(out, true)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// shellFromEnv maps $SHELL to a supported shell, defaulting to bash.
func shellFromEnv(shell string) string {
	shell = strings.ToLower(shell)
	switch {
	case strings.Contains(shell, "fish"):
		return "fish"
	case strings.Contains(shell, "zsh"):
		return "zsh"
	case strings.Contains(shell, "pwsh"), strings.Contains(shell, "powershell"):
		return "powershell"
	}
	return "bash"
}

// hostCompletion offers the concrete Host aliases of the ssh config.
func hostCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	path := config.Global.SSHConfigFile
	if path == "" {
		path = remote.DefaultSSHConfigPath()
	}
	cfg, err := remote.LoadSSHConfig(path)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var hosts []string
	for _, h := range sshConfigHosts(cfg) {
		if strings.HasPrefix(h, toComplete) {
			hosts = append(hosts, h)
		}
	}
	return hosts, cobra.ShellCompDirectiveNoFileComp
}

// sshConfigHosts lists Host patterns without wildcards or negation, sorted.
func sshConfigHosts(cfg *ssh_config.Config) []string {
	seen := make(map[string]bool)
	var hosts []string
	for _, h := range cfg.Hosts {
		for _, p := range h.Patterns {
			name := p.String()
			if name == "" || strings.ContainsAny(name, "*?!") || seen[name] {
				continue
			}
			seen[name] = true
			hosts = append(hosts, name)
		}
	}
	sort.Strings(hosts)
	return hosts
}
