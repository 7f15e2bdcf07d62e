package condor

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestArgsPreserveInsertionOrder(t *testing.T) {
	args := NewArgs().
		Set("zeta", 1).
		Set("alpha", "two").
		Set("mid", 0.001).
		Set("beta", true)

	want := "--zeta 1 --alpha two --mid 0.001 --beta true"
	if got := args.String(); got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
	if diff := cmp.Diff([]string{"zeta", "alpha", "mid", "beta"}, args.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestArgsResetKeepsPosition(t *testing.T) {
	args := NewArgs().Set("lr", 0.1).Set("epochs", 5).Set("lr", 0.01)
	if got, want := args.String(), "--lr 0.01 --epochs 5"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
	if args.Len() != 2 {
		t.Errorf("Len() = %d; want 2", args.Len())
	}
}

func TestArgsZeroValueAndClone(t *testing.T) {
	var args Args
	if got := args.String(); got != "" {
		t.Errorf("zero String() = %q; want empty", got)
	}
	args.Set("b", 2).Set("a", 1)

	clone := args.Clone()
	clone.Set("a", 10).Set("c", 3)
	if got, want := args.String(), "--b 2 --a 1"; got != want {
		t.Errorf("original String() = %q; want %q", got, want)
	}
	if got, want := clone.String(), "--b 2 --a 10 --c 3"; got != want {
		t.Errorf("clone String() = %q; want %q", got, want)
	}
}

func TestArgsEmptyValueIsSwitch(t *testing.T) {
	args := NewArgs().Set("verbose", nil).Set("n", 3)
	if got, want := args.String(), "--verbose --n 3"; got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}

func TestArgsSpacing(t *testing.T) {
	// Every entry is "--key value" with single spaces, for many sizes.
	for n := 1; n <= 20; n++ {
		args := NewArgs()
		var want []string
		for i := 0; i < n; i++ {
			key := "k" + strings.Repeat("x", i)
			args.Set(key, i)
			want = append(want, "--"+key, strconv.Itoa(i))
		}
		if got := args.String(); got != strings.Join(want, " ") {
			t.Errorf("n=%d: String() = %q; want %q", n, got, strings.Join(want, " "))
		}
		if strings.Contains(args.String(), "  ") {
			t.Errorf("n=%d: double space in %q", n, args.String())
		}
	}
}

func TestNewJobValidation(t *testing.T) {
	valid := func() JobOptions {
		return JobOptions{
			Executable: "/opt/conda/bin/python",
			Script:     "classifier.py",
			Args:       NewArgs().Set("batch_size", 32),
		}
	}

	tests := []struct {
		name   string
		mutate func(*JobOptions)
		field  string
	}{
		{"empty executable", func(o *JobOptions) { o.Executable = "" }, "Executable"},
		{"blank executable", func(o *JobOptions) { o.Executable = "  " }, "Executable"},
		{"empty script", func(o *JobOptions) { o.Script = "" }, "Script"},
		{"key with space", func(o *JobOptions) { o.Args.Set("batch size", 1) }, "Args"},
		{"key with tab", func(o *JobOptions) { o.Args.Set("batch\tsize", 1) }, "Args"},
		{"empty key", func(o *JobOptions) { o.Args.Set("", 1) }, "Args"},
		{"dashed key", func(o *JobOptions) { o.Args.Set("-lr", 1) }, "Args"},
		{"tag with slash", func(o *JobOptions) { o.Tag = "a/b" }, "Tag"},
		{"tag with space", func(o *JobOptions) { o.Tag = "a b" }, "Tag"},
		{"negative runtime", func(o *JobOptions) { o.RuntimeHours = -1 }, "RuntimeHours"},
		{"bad transfer mode", func(o *JobOptions) { o.ShouldTransferFiles = "MAYBE" }, "ShouldTransferFiles"},
		{"bad output when", func(o *JobOptions) { o.WhenToTransferOutput = "NEVER" }, "WhenToTransferOutput"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid()
			tt.mutate(&opts)
			_, err := NewJob(opts)
			if err == nil {
				t.Fatalf("NewJob() succeeded; want error on %s", tt.field)
			}
			je, ok := err.(*JobError)
			if !ok {
				t.Fatalf("error type = %T; want *JobError", err)
			}
			if je.Field != tt.field {
				t.Errorf("Field = %q; want %q", je.Field, tt.field)
			}
		})
	}

	if _, err := NewJob(valid()); err != nil {
		t.Errorf("NewJob(valid) error = %v", err)
	}
}

func TestJobIsIndependentOfCallerArgs(t *testing.T) {
	args := NewArgs().Set("epochs", 5)
	job, err := NewJob(JobOptions{Executable: "/bin/python", Script: "train.py", Args: args})
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}
	args.Set("epochs", 50).Set("extra", 1)
	if got, want := job.ArgumentLine(), "--epochs 5"; got != want {
		t.Errorf("ArgumentLine() = %q; want %q", got, want)
	}
}

func TestJobArgumentsAndLogBase(t *testing.T) {
	job, err := NewJob(JobOptions{
		Executable:  "/opt/conda/bin/python",
		Script:      "classifier.py",
		Positional:  []string{"data.csv"},
		Args:        NewArgs().Set("batch_size", 32).Set("epochs", 5),
		Tag:         "clf",
		ArtifactDir: "logs/run1/",
	})
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	if got, want := job.ArgumentLine(), "--batch_size 32 --epochs 5"; got != want {
		t.Errorf("ArgumentLine() = %q; want %q", got, want)
	}
	if got, want := job.Arguments(), "classifier.py data.csv --batch_size 32 --epochs 5"; got != want {
		t.Errorf("Arguments() = %q; want %q", got, want)
	}
	if got, want := job.LogBase(), "logs/run1/clf$(cluster).$(process)"; got != want {
		t.Errorf("LogBase() = %q; want %q", got, want)
	}
}

func TestJobDirectives(t *testing.T) {
	job, err := NewJob(JobOptions{
		Executable:    "/opt/conda/bin/python",
		Script:        "classifier.py",
		Args:          NewArgs().Set("batch_size", 32),
		Tag:           "clf",
		ArtifactDir:   "/proj/logs",
		CanCheckpoint: true,
		RuntimeHours:  4,
	})
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}

	want := []Directive{
		{Key: "JobBatchName", Value: `"clf"`},
		{Key: "executable", Value: "/opt/conda/bin/python"},
		{Key: "arguments", Value: "classifier.py --batch_size 32"},
		{Key: "should_transfer_files", Value: "YES"},
		{Key: "when_to_transfer_output", Value: "ON_EXIT_OR_EVICT"},
		{Key: "stream_output", Value: "False"},
		{Key: "log", Value: "/proj/logs/clf$(cluster).$(process).log"},
		{Key: "error", Value: "/proj/logs/clf$(cluster).$(process).err"},
		{Key: "output", Value: "/proj/logs/clf$(cluster).$(process).out"},
		{Key: "+CanCheckpoint", Value: "True"},
		{Key: "+JobRunTime", Value: "4"},
	}
	if diff := cmp.Diff(want, job.Directives()); diff != "" {
		t.Errorf("Directives() mismatch (-want +got):\n%s", diff)
	}
}

func TestJobDirectivesOmitOptionalHints(t *testing.T) {
	job, err := NewJob(JobOptions{Executable: "/bin/bash", Script: "run.sh"})
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}
	for _, d := range job.Directives() {
		switch d.Key {
		case "JobBatchName", "+CanCheckpoint", "+JobRunTime":
			t.Errorf("unexpected directive %q", d.Key)
		}
	}
	if job.ArtifactDir() != "." {
		t.Errorf("ArtifactDir() = %q; want \".\"", job.ArtifactDir())
	}
}

func TestJobWithExecutable(t *testing.T) {
	job, err := NewJob(JobOptions{Executable: "python", Script: "a.py", Args: NewArgs().Set("x", 1)})
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}
	resolved := job.WithExecutable("/usr/bin/python")
	if job.Executable() != "python" {
		t.Errorf("original Executable() = %q; want python", job.Executable())
	}
	if resolved.Executable() != "/usr/bin/python" {
		t.Errorf("resolved Executable() = %q", resolved.Executable())
	}
	if resolved.ArgumentLine() != job.ArgumentLine() {
		t.Errorf("ArgumentLine changed: %q vs %q", resolved.ArgumentLine(), job.ArgumentLine())
	}
}

func TestJobWithArgs(t *testing.T) {
	job, err := NewJob(JobOptions{Executable: "/bin/python", Script: "a.py", Args: NewArgs().Set("lr", 0.1).Set("epochs", 5)})
	if err != nil {
		t.Fatalf("NewJob() error = %v", err)
	}
	merged, err := job.WithArgs(NewArgs().Set("lr", 0.01).Set("seed", 7))
	if err != nil {
		t.Fatalf("WithArgs() error = %v", err)
	}
	if got, want := merged.ArgumentLine(), "--lr 0.01 --epochs 5 --seed 7"; got != want {
		t.Errorf("ArgumentLine() = %q; want %q", got, want)
	}
	if got, want := job.ArgumentLine(), "--lr 0.1 --epochs 5"; got != want {
		t.Errorf("original ArgumentLine() = %q; want %q", got, want)
	}
	if _, err := job.WithArgs(NewArgs().Set("bad key", 1)); !IsJobError(err) {
		t.Errorf("WithArgs(bad key) error = %v; want JobError", err)
	}
}
