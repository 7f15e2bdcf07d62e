package condor

import (
	"regexp"
	"strconv"
)

// Example: "1 job(s) submitted to cluster 12345."
var submitOutputRe = regexp.MustCompile(`(\d+) job\(s\) submitted to cluster (\d+)`)

// ParseSubmitOutput extracts the cluster id and job count from condor_submit output.
func ParseSubmitOutput(output string) (clusterID string, count int, ok bool) {
	matches := submitOutputRe.FindStringSubmatch(output)
	if len(matches) < 3 {
		return "", 0, false
	}
	count, err := strconv.Atoi(matches[1])
	if err != nil {
		return "", 0, false
	}
	return matches[2], count, true
}
