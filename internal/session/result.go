package session

// Result describes an accepted submission.
type Result struct {
	ClusterID  string // Cluster id parsed from condor_submit output, "" if unparseable
	Count      int    // Number of queued jobs reported by condor_submit
	SubmitFile string // Remote path of the submit description
	Output     string // condor_submit stdout
	DryRun     bool   // The description was written but not submitted
}

// ID returns the cluster id, or a confirmation word when none was parsed.
// It is never empty.
func (r *Result) ID() string {
	switch {
	case r.ClusterID != "":
		return r.ClusterID
	case r.DryRun:
		return "dry-run"
	}
	return "submitted"
}
