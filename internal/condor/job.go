package condor

import (
	"path"
	"strconv"
	"strings"
)

// TransferMode is the should_transfer_files setting.
type TransferMode string

const (
	TransferYes      TransferMode = "YES"
	TransferNo       TransferMode = "NO"
	TransferIfNeeded TransferMode = "IF_NEEDED"
)

// OutputWhen is the when_to_transfer_output setting.
type OutputWhen string

const (
	OnExit        OutputWhen = "ON_EXIT"
	OnExitOrEvict OutputWhen = "ON_EXIT_OR_EVICT"
)

// JobOptions describes one unit of work as supplied by the caller.
type JobOptions struct {
	Executable           string       // Interpreter or binary, e.g. "/opt/conda/bin/python"
	Script               string       // Entry point passed as the first argument
	Positional           []string     // Positional arguments rendered after the script
	Args                 *Args        // Long options rendered after positional arguments
	Tag                  string       // JobBatchName and prefix for log and submit file names
	ArtifactDir          string       // Where log/output/error files are collected
	CanCheckpoint        bool         // Adds +CanCheckpoint = True
	RuntimeHours         int          // Estimated runtime hint (+JobRunTime), 0 = none
	ShouldTransferFiles  TransferMode // Default TransferYes
	WhenToTransferOutput OutputWhen   // Default OnExitOrEvict
	StreamOutput         bool         // stream_output
}

// Job is an immutable description of one submission.
type Job struct {
	executable    string
	script        string
	positional    []string
	args          *Args
	tag           string
	artifactDir   string
	canCheckpoint bool
	runtimeHours  int
	transfer      TransferMode
	when          OutputWhen
	streamOutput  bool
}

// NewJob validates opts and returns a frozen Job.
func NewJob(opts JobOptions) (*Job, error) {
	executable := strings.TrimSpace(opts.Executable)
	if executable == "" {
		return nil, NewJobError("Executable", "", "must not be empty")
	}
	script := strings.TrimSpace(opts.Script)
	if script == "" {
		return nil, NewJobError("Script", "", "must not be empty")
	}

	for _, key := range opts.Args.Keys() {
		if reason := validateArgKey(key); reason != "" {
			return nil, NewJobError("Args", key, reason)
		}
	}

	if strings.ContainsRune(opts.Tag, '/') || strings.IndexFunc(opts.Tag, isSpace) >= 0 || strings.Contains(opts.Tag, `"`) {
		return nil, NewJobError("Tag", opts.Tag, "must not contain '/', quotes or whitespace")
	}
	if opts.RuntimeHours < 0 {
		return nil, NewJobError("RuntimeHours", strconv.Itoa(opts.RuntimeHours), "must not be negative")
	}

	transfer := opts.ShouldTransferFiles
	switch transfer {
	case "":
		transfer = TransferYes
	case TransferYes, TransferNo, TransferIfNeeded:
	default:
		return nil, NewJobError("ShouldTransferFiles", string(transfer), "must be YES, NO or IF_NEEDED")
	}

	when := opts.WhenToTransferOutput
	switch when {
	case "":
		when = OnExitOrEvict
	case OnExit, OnExitOrEvict:
	default:
		return nil, NewJobError("WhenToTransferOutput", string(when), "must be ON_EXIT or ON_EXIT_OR_EVICT")
	}

	artifactDir := strings.TrimSpace(opts.ArtifactDir)
	if artifactDir == "" {
		artifactDir = "."
	}

	return &Job{
		executable:    executable,
		script:        script,
		positional:    append([]string(nil), opts.Positional...),
		args:          opts.Args.Clone(),
		tag:           opts.Tag,
		artifactDir:   path.Clean(artifactDir),
		canCheckpoint: opts.CanCheckpoint,
		runtimeHours:  opts.RuntimeHours,
		transfer:      transfer,
		when:          when,
		streamOutput:  opts.StreamOutput,
	}, nil
}

func (j *Job) Executable() string { return j.executable }
func (j *Job) Script() string { return j.script }
func (j *Job) Tag() string { return j.tag }
func (j *Job) ArtifactDir() string { return j.artifactDir }
func (j *Job) CanCheckpoint() bool { return j.canCheckpoint }
func (j *Job) RuntimeHours() int { return j.runtimeHours }

// Args returns a copy of the argument mapping.
func (j *Job) Args() *Args { return j.args.Clone() }

// ArgumentLine renders the argument mapping as "--key value" pairs.
func (j *Job) ArgumentLine() string {
	return j.args.String()
}

// Arguments renders the full submit "arguments" value: script, positional
// arguments and the argument line, skipping empty parts.
func (j *Job) Arguments() string {
	parts := []string{j.script}
	parts = append(parts, j.positional...)
	if line := j.ArgumentLine(); line != "" {
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

// LogBase is the artifact path shared by the log, output and error files.
// HTCondor expands $(cluster) and $(process) at submit time.
func (j *Job) LogBase() string {
	return path.Join(j.artifactDir, j.tag+"$(cluster).$(process)")
}

// WithExecutable returns a copy of j with a different executable path.
func (j *Job) WithExecutable(executable string) *Job {
	cp := *j
	cp.executable = executable
	cp.positional = append([]string(nil), j.positional...)
	cp.args = j.args.Clone()
	return &cp
}

// WithArtifactDir returns a copy of j collecting artifacts in dir.
func (j *Job) WithArtifactDir(dir string) *Job {
	cp := j.WithExecutable(j.executable)
	cp.artifactDir = path.Clean(dir)
	return cp
}

// WithArgs returns a copy of j with extra merged into its arguments.
// Keys already present keep their position and take the new value.
func (j *Job) WithArgs(extra *Args) (*Job, error) {
	for _, key := range extra.Keys() {
		if reason := validateArgKey(key); reason != "" {
			return nil, NewJobError("Args", key, reason)
		}
	}
	cp := j.WithExecutable(j.executable)
	for _, key := range extra.Keys() {
		v, _ := extra.Get(key)
		cp.args.Set(key, v)
	}
	return cp, nil
}

// Directives renders the job part of the submit description.
func (j *Job) Directives() []Directive {
	var ds []Directive
	if j.tag != "" {
		ds = append(ds, Directive{Key: "JobBatchName", Value: strconv.Quote(j.tag)})
	}
	base := j.LogBase()
	ds = append(ds,
		Directive{Key: "executable", Value: j.executable},
		Directive{Key: "arguments", Value: j.Arguments()},
		Directive{Key: "should_transfer_files", Value: string(j.transfer)},
		Directive{Key: "when_to_transfer_output", Value: string(j.when)},
		Directive{Key: "stream_output", Value: classAdBool(j.streamOutput)},
		Directive{Key: "log", Value: base + ".log"},
		Directive{Key: "error", Value: base + ".err"},
		Directive{Key: "output", Value: base + ".out"},
	)
	if j.canCheckpoint {
		ds = append(ds, Directive{Key: "+CanCheckpoint", Value: classAdBool(true)})
	}
	if j.runtimeHours > 0 {
		ds = append(ds, Directive{Key: "+JobRunTime", Value: strconv.Itoa(j.runtimeHours)})
	}
	return ds
}

func classAdBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
