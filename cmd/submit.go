package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Justype/condorlink/internal/condor"
	"github.com/Justype/condorlink/internal/jobfile"
	"github.com/Justype/condorlink/internal/session"
	"github.com/Justype/condorlink/internal/utils"
	"github.com/spf13/cobra"
)

var (
	submitDryRun bool
	submitFiles  []string
	submitTag    string
	submitEnv    []string
	submitArgs   = newArgsValue()
)

var submitCmd = &cobra.Command{
	Use:   "submit [JOBFILE...]",
	Short: "Submit jobs to the HTCondor submit host",
	Long: `Render each job of the given YAML job files into an HTCondor submit file,
copy it into the project space on the submit host and run condor_submit on it.

Jobs are submitted one after another over a single SSH connection. The first
failure stops the run; the connection is always closed.

Native submit files can be sent as they are with --file.`,
	Example: `  condorlink submit jobs.yaml                          # Submit every job in jobs.yaml
  condorlink submit jobs.yaml --arg epochs=10          # Override an argument for all jobs
  condorlink submit jobs.yaml --dry-run                # Write submit files without submitting
  condorlink submit --file train.sub --tag train       # Submit a native submit file`,
	SilenceUsage:      true, // Runtime errors should not show usage
	ValidArgsFunction: jobFileCompletion,
	RunE:              runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().BoolVarP(&submitDryRun, "dry-run", "n", false, "write submit files but do not run condor_submit")
	submitCmd.Flags().StringSliceVarP(&submitFiles, "file", "f", nil, "native HTCondor submit file (can be used multiple times)")
	submitCmd.Flags().StringVarP(&submitTag, "tag", "t", "", "tag naming submit files given with --file")
	submitCmd.Flags().StringSliceVarP(&submitEnv, "env", "e", nil, "local environment variable to export into jobs (can be used multiple times)")
	submitCmd.Flags().VarP(submitArgs, "arg", "a", "job argument 'key=value' added to every job (can be used multiple times, order is kept)")
	submitCmd.RegisterFlagCompletionFunc("file", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"sub", "submit"}, cobra.ShellCompDirectiveFilterFileExt
	})
}

// submitItem is one unit of work for the session.
type submitItem struct {
	job  *condor.Job
	cfg  *condor.Configuration
	desc *condor.Description
	tag  string
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && len(submitFiles) == 0 {
		return fmt.Errorf("nothing to submit: give a job file or --file")
	}

	items, err := collectSubmitItems(args, submitFiles, submitTag, submitArgs.Args())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	submitted := 0
	err = withSession(ctx, func(s *session.Session) error {
		for _, item := range items {
			res, err := submitOne(ctx, s, item)
			if err != nil {
				return err
			}
			submitted++
			reportResult(item, res)
		}
		return nil
	}, session.WithDryRun(submitDryRun), session.WithEnv(submitEnv...))

	if submitted > 0 {
		verb := "Submitted"
		if submitDryRun {
			verb = "Prepared"
		}
		utils.PrintSuccess("%s %s of %s job(s)", verb, utils.StyleNumber(submitted), utils.StyleNumber(len(items)))
	}
	return err
}

func submitOne(ctx context.Context, s *session.Session, item submitItem) (*session.Result, error) {
	if item.desc != nil {
		return s.SubmitDescription(ctx, item.tag, item.desc)
	}
	return s.Submit(ctx, item.job, item.cfg)
}

func reportResult(item submitItem, res *session.Result) {
	name := item.tag
	if item.job != nil {
		name = item.job.Tag()
	}
	if name == "" {
		name = filepath.Base(res.SubmitFile)
	}
	if res.DryRun {
		utils.PrintMessage("%s: wrote %s", utils.StyleName(name), utils.StylePath(res.SubmitFile))
		return
	}
	utils.PrintMessage("%s: cluster %s (%s)", utils.StyleName(name), utils.StyleNumber(res.ID()), utils.StylePath(res.SubmitFile))
}

// collectSubmitItems loads every job file and submit file before connecting,
// so invalid input never opens a connection.
func collectSubmitItems(jobFiles, subFiles []string, tag string, extra *condor.Args) ([]submitItem, error) {
	files, err := loadJobFiles(jobFiles)
	if err != nil {
		return nil, err
	}

	var items []submitItem
	for _, f := range files {
		jobs, err := applyExtraArgs(f, extra)
		if err != nil {
			return nil, err
		}
		for _, job := range jobs {
			items = append(items, submitItem{job: job, cfg: f.Configuration})
		}
	}

	for _, path := range subFiles {
		if !utils.IsSubmitFile(path) {
			utils.PrintWarning("%s does not look like a submit file (.sub or .submit)", utils.StylePath(path))
		}
		desc, err := readSubmitFile(path)
		if err != nil {
			return nil, err
		}
		t := tag
		if t == "" {
			t = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		items = append(items, submitItem{desc: desc, tag: t})
	}
	return items, nil
}

func applyExtraArgs(f *jobfile.File, extra *condor.Args) ([]*condor.Job, error) {
	if extra.Len() == 0 {
		return f.Jobs, nil
	}
	jobs := make([]*condor.Job, 0, len(f.Jobs))
	for _, job := range f.Jobs {
		merged, err := job.WithArgs(extra)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, merged)
	}
	return jobs, nil
}

func readSubmitFile(path string) (*condor.Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open submit file: %w", err)
	}
	defer f.Close()
	desc, err := condor.ParseDescription(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}
