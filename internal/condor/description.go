package condor

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Directive is one line of a submit description.
// A directive with Comment set renders as "# Comment" and has no key.
type Directive struct {
	Key     string
	Value   string
	Comment string
}

// IsComment reports whether d is a comment line.
func (d Directive) IsComment() bool { return d.Key == "" && d.Comment != "" }

func (d Directive) String() string {
	switch {
	case d.IsComment():
		return "# " + d.Comment
	case d.Key == "queue":
		if d.Value == "" {
			return "queue"
		}
		return "queue " + d.Value
	default:
		return d.Key + " = " + d.Value
	}
}

// EnvVar is one entry of the job environment.
type EnvVar struct {
	Name  string
	Value string
}

// DescriptionOptions carries session-level context for BuildDescription.
type DescriptionOptions struct {
	ProjectSpace string   // Mounted into docker jobs ahead of the extra mounts
	Env          []EnvVar // Exported into the job environment, in order
}

// Description is a rendered HTCondor submit description.
type Description struct {
	directives []Directive
}

// BuildDescription combines the job and configuration into a submit
// description that queues exactly one instance.
func BuildDescription(job *Job, cfg *Configuration, opts DescriptionOptions) *Description {
	ds := []Directive{
		{Comment: "HTCondor submit file"},
		{Comment: "Job configurations"},
	}
	if env := environment(cfg, opts); env != "" {
		ds = append(ds, Directive{Key: "environment", Value: env})
	}
	ds = append(ds, job.Directives()...)
	ds = append(ds, Directive{Comment: "System configurations"})
	ds = append(ds, cfg.Directives()...)
	ds = append(ds,
		Directive{Comment: "Queueing"},
		Directive{Key: "queue"},
	)
	return &Description{directives: ds}
}

// environment renders the HTCondor "new syntax" environment value, or "" when empty.
func environment(cfg *Configuration, opts DescriptionOptions) string {
	var entries []string
	if cfg.Universe().IsContainer() {
		var mounts []string
		if opts.ProjectSpace != "" {
			mounts = append(mounts, opts.ProjectSpace)
		}
		mounts = append(mounts, cfg.Mounts()...)
		if len(mounts) > 0 {
			entries = append(entries, "mount="+strings.Join(mounts, ","))
		}
	}
	for _, e := range opts.Env {
		entries = append(entries, e.Name+"="+quoteEnvValue(e.Value))
	}
	if len(entries) == 0 {
		return ""
	}
	return `"` + strings.Join(entries, " ") + `"`
}

// quoteEnvValue applies HTCondor's environment quoting: values with
// whitespace are single-quoted, quote characters are doubled.
func quoteEnvValue(v string) string {
	v = strings.ReplaceAll(v, `"`, `""`)
	v = strings.ReplaceAll(v, `'`, `''`)
	if strings.IndexFunc(v, isSpace) >= 0 || v == "" {
		return "'" + v + "'"
	}
	return v
}

// Directives returns a copy of the description's lines.
func (d *Description) Directives() []Directive {
	return append([]Directive(nil), d.directives...)
}

// Lookup returns the value of the first directive named key (case-insensitive).
func (d *Description) Lookup(key string) (string, bool) {
	for _, dir := range d.directives {
		if !dir.IsComment() && strings.EqualFold(dir.Key, key) {
			return dir.Value, true
		}
	}
	return "", false
}

// QueueCount returns the number of "queue" statements.
func (d *Description) QueueCount() int {
	n := 0
	for _, dir := range d.directives {
		if dir.Key == "queue" {
			n++
		}
	}
	return n
}

// WriteTo writes the description, one directive per line.
func (d *Description) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, dir := range d.directives {
		written, err := fmt.Fprintln(bw, dir.String())
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Bytes returns the rendered description.
func (d *Description) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = d.WriteTo(&buf)
	return buf.Bytes()
}

func (d *Description) String() string {
	return string(d.Bytes())
}
