package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Justype/condorlink/internal/config"
	"github.com/Justype/condorlink/internal/jobfile"
	"github.com/Justype/condorlink/internal/remote"
	"github.com/Justype/condorlink/internal/session"
	"github.com/Justype/condorlink/internal/utils"
	"github.com/spf13/cobra"
)

// Exit codes used by various commands
const (
	// Generic error code
	ExitCodeError = 1
)

// ConnectionFlags holds the submit-host flags shared by submit and info
type ConnectionFlags struct {
	Host          string
	User          string
	Port          int
	ProjectSpace  string
	IdentityFiles []string
	SubmitBin     string
}

var connFlags ConnectionFlags

// RegisterConnectionFlags registers the submit-host flags on a cobra command
func RegisterConnectionFlags(cmd *cobra.Command, flags *ConnectionFlags) {
	cmd.PersistentFlags().StringVarP(&flags.Host, "host", "H", "", "submit host or ~/.ssh/config alias")
	cmd.PersistentFlags().StringVarP(&flags.User, "user", "u", "", "login user (default from ssh config or $USER)")
	cmd.PersistentFlags().IntVarP(&flags.Port, "port", "p", 0, "SSH port (default from ssh config or 22)")
	cmd.PersistentFlags().StringVarP(&flags.ProjectSpace, "project-space", "P", "", "remote working directory for submit files")
	cmd.PersistentFlags().StringSliceVarP(&flags.IdentityFiles, "identity", "i", nil, "private key file (can be used multiple times)")
	cmd.PersistentFlags().StringVar(&flags.SubmitBin, "submit-bin", "", "remote condor_submit command")

	cmd.RegisterFlagCompletionFunc("host", hostCompletion)
	cmd.RegisterFlagCompletionFunc("identity", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveDefault
	})
}

// resolveTarget applies ~/.ssh/config to the configured host.
func resolveTarget() (remote.Target, error) {
	g := config.Global
	if strings.TrimSpace(g.Host) == "" {
		return remote.Target{}, fmt.Errorf("no submit host configured (use --host or 'condorlink config set host <host>')")
	}
	sshConfigFile := g.SSHConfigFile
	if sshConfigFile == "" {
		sshConfigFile = remote.DefaultSSHConfigPath()
	}
	sshCfg, err := remote.LoadSSHConfig(sshConfigFile)
	if err != nil {
		return remote.Target{}, err
	}
	return remote.ResolveTarget(sshCfg, g.Host, g.User, g.Port, g.IdentityFiles...)
}

// newDialer builds an SSH dialer from Global. Secrets come from the
// configured environment variable or file first, then the terminal.
func newDialer() (*remote.SSHDialer, error) {
	g := config.Global
	policy, err := remote.ParseHostKeyPolicy(g.HostKeyPolicy)
	if err != nil {
		return nil, err
	}
	creds := remote.Chain{
		remote.EnvCredentials{
			PasswordEnv:   firstNonEmpty(g.PasswordEnv, config.EnvPrefix+"_PASSWORD"),
			PasswordFile:  g.PasswordFile,
			PassphraseEnv: config.EnvPrefix + "_PASSPHRASE",
		},
	}
	if utils.IsInteractiveShell() {
		creds = append(creds, remote.TerminalPrompt{In: os.Stdin, Out: os.Stderr})
	}
	return &remote.SSHDialer{
		KnownHostsFile: g.KnownHostsFile,
		HostKeyPolicy:  policy,
		Credentials:    creds,
		Timeout:        g.ConnectTimeout,
	}, nil
}

// withSession opens a session on the configured host and runs fn inside it.
func withSession(ctx context.Context, fn func(*session.Session) error, extra ...session.Option) error {
	g := config.Global
	if strings.TrimSpace(g.ProjectSpace) == "" {
		return fmt.Errorf("no project space configured (use --project-space or 'condorlink config set project_space <dir>')")
	}
	target, err := resolveTarget()
	if err != nil {
		return err
	}
	dialer, err := newDialer()
	if err != nil {
		return err
	}

	opts := []session.Option{
		session.WithSubmitBin(g.SubmitBin),
		session.WithEnv(g.ExportEnv...),
		session.WithRemoveSubmitFile(g.RemoveSubmitFile),
	}
	opts = append(opts, extra...)

	utils.PrintMessage("Connecting to %s", utils.StyleName(target.String()))
	return session.With(ctx, dialer, target, g.ProjectSpace, fn, opts...)
}

// loadJobFiles parses every job file with the configured resource defaults.
func loadJobFiles(paths []string) ([]*jobfile.File, error) {
	files := make([]*jobfile.File, 0, len(paths))
	for _, p := range paths {
		if !utils.FileExists(p) {
			return nil, fmt.Errorf("job file %s not found", utils.StylePath(p))
		}
		if !utils.IsYaml(p) {
			return nil, fmt.Errorf("job file %s is not a YAML file", utils.StylePath(p))
		}
		f, err := jobfile.Load(p, config.Global.Defaults)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// jobFileCompletion suggests YAML job files
func jobFileCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}
