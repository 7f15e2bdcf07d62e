package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Justype/condorlink/internal/config"
	"github.com/Justype/condorlink/internal/session"
	"github.com/Justype/condorlink/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	debugMode bool
	quietMode bool
)

var rootCmd = &cobra.Command{
	Use:           "condorlink",
	Short:         "condorlink: render HTCondor submit files and submit them over SSH.",
	Version:       config.VERSION,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Step 1: Load built-in defaults
		config.LoadDefaults()

		// Step 2: Initialize Viper (read config file, env vars)
		if err := config.InitViper(); err != nil {
			utils.PrintWarning("Error reading config file: %v", err)
		}

		// Step 3: Command-line flags win over file and environment
		bindFlags(cmd)

		// Step 4: Load values from Viper into Global config
		if err := config.LoadFromViper(); err != nil {
			return err
		}

		if quietMode {
			utils.QuietMode = true
		}
		if debugMode {
			utils.DebugMode = true
			config.Global.Debug = true
			utils.PrintDebug("Debug mode enabled")
			utils.PrintDebug("condorlink Version: %s", utils.StyleInfo(config.VERSION))
			if used := viper.ConfigFileUsed(); used != "" {
				utils.PrintDebug("Config file: %s", utils.StylePath(used))
			}
			if config.Global.Host != "" {
				utils.PrintDebug("Submit host: %s", config.Global.Host)
			}
			utils.PrintDebug("Submit binary: %s", config.Global.SubmitBin)
		}
		return nil
	},
}

// connection flags shared by every command that talks to the submit host
var connectionFlags = map[string]string{
	"host":          "host",
	"user":          "user",
	"port":          "port",
	"project-space": "project_space",
	"identity":      "identity_files",
	"submit-bin":    "submit_bin",
}

// bindFlags binds the connection flags that were set on the command line to viper keys.
func bindFlags(cmd *cobra.Command) {
	for flag, key := range connectionFlags {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := viper.BindPFlag(key, f); err != nil {
				utils.PrintDebug("Failed to bind --%s: %v", flag, err)
			}
		}
	}
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Cobra's automatic error printing is silenced. For submission errors
		// print the captured condor_submit output after the message.
		if se, ok := submissionFailure(err); ok {
			utils.PrintError("Submission failed for %s: %v", submissionName(se), se.Err)
			if out := strings.TrimSpace(se.Output); out != "" {
				fmt.Fprintln(os.Stderr, out)
			}
			os.Exit(ExitCodeError)
		}
		utils.PrintError("%v", err)
		os.Exit(ExitCodeError)
	}
}

// submissionFailure finds a SubmissionError anywhere in err's chain,
// including errors joined with a close failure.
func submissionFailure(err error) (*session.SubmissionError, bool) {
	var se *session.SubmissionError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func submissionName(se *session.SubmissionError) string {
	if se.Tag != "" {
		return se.Tag
	}
	return se.SubmitFile
}

func init() {
	// Subcommands are attached to rootCmd in their respective init() functions
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode with verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress informational messages")
	RegisterConnectionFlags(rootCmd, &connFlags)
}
