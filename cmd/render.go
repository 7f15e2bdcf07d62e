package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Justype/condorlink/internal/condor"
	"github.com/Justype/condorlink/internal/config"
	"github.com/Justype/condorlink/internal/utils"
	"github.com/spf13/cobra"
)

var (
	renderEnv  []string
	renderArgs = newArgsValue()
)

var renderCmd = &cobra.Command{
	Use:   "render JOBFILE...",
	Short: "Print the submit files a job file would produce",
	Long: `Render every job of the given YAML job files into HTCondor submit
descriptions and print them without connecting to the submit host.

Relative artifact directories and bare executable names are printed as given;
submit resolves them on the submit host.`,
	Example: `  condorlink render jobs.yaml
  condorlink render jobs.yaml --arg seed=7 -P /proj/alice`,
	Args:              cobra.MinimumNArgs(1),
	SilenceUsage:      true,
	ValidArgsFunction: jobFileCompletion,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := collectSubmitItems(args, nil, "", renderArgs.Args())
		if err != nil {
			return err
		}
		env := lookupEnv(append(append([]string{}, config.Global.ExportEnv...), renderEnv...))
		return renderItems(cmd.OutOrStdout(), items, config.Global.ProjectSpace, env)
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringSliceVarP(&renderEnv, "env", "e", nil, "local environment variable to export into jobs (can be used multiple times)")
	renderCmd.Flags().VarP(renderArgs, "arg", "a", "job argument 'key=value' added to every job (can be used multiple times, order is kept)")
}

func renderItems(w io.Writer, items []submitItem, projectSpace string, env []condor.EnvVar) error {
	for i, item := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		desc := condor.BuildDescription(item.job, item.cfg, condor.DescriptionOptions{
			ProjectSpace: projectSpace,
			Env:          env,
		})
		if _, err := desc.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

func lookupEnv(keys []string) []condor.EnvVar {
	var env []condor.EnvVar
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			env = append(env, condor.EnvVar{Name: key, Value: value})
		} else {
			utils.PrintDebug("Environment variable %s is not set, skipping", key)
		}
	}
	return env
}
