package cmd

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/Justype/condorlink/internal/config"
	"github.com/Justype/condorlink/internal/session"
	"github.com/Justype/condorlink/internal/utils"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Check the connection and HTCondor version on the submit host",
	Long: `Connect to the submit host, make sure the project space exists and
report the HTCondor version found there.

The version is compared with the oldest HTCondor release condorlink supports.`,
	Example: `  condorlink info
  condorlink info -H gpu -P /proj/alice`,
	Args:         cobra.NoArgs,
	SilenceUsage: true, // Runtime errors should not show usage
	RunE:         runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	return withSession(ctx, func(s *session.Session) error {
		version, err := s.SchedulerVersion(ctx)
		if err != nil {
			return err
		}

		fmt.Println(utils.StyleTitle("Submit Host:"))
		fmt.Printf("  target:         %s\n", s.Target())
		fmt.Printf("  project_space:  %s\n", utils.StylePath(s.ProjectSpace()))
		fmt.Printf("  submit_bin:     %s\n", config.Global.SubmitBin)
		fmt.Println()

		fmt.Println(utils.StyleTitle("HTCondor:"))
		fmt.Printf("  version:        %s\n", version)
		if compareVersions(version, config.MinCondorVersion) < 0 {
			utils.PrintWarning("HTCondor %s is older than %s; some submit directives may be rejected",
				version, config.MinCondorVersion)
		} else {
			utils.PrintSuccess("HTCondor %s is supported", version)
		}
		return nil
	})
}

// compareVersions compares two semantic versions. It returns:
//
//	-1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2.
//
// A leading 'v' is optional. Unparseable versions sort first.
func compareVersions(v1, v2 string) int {
	c1 := semver.Canonical(withV(v1))
	c2 := semver.Canonical(withV(v2))
	switch {
	case c1 == "" && c2 == "":
		return 0
	case c1 == "":
		return -1
	case c2 == "":
		return 1
	}
	return semver.Compare(c1, c2)
}

func withV(version string) string {
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}
