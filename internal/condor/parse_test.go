package condor

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDescriptionRoundTrip(t *testing.T) {
	desc := classifierDescription(t)
	parsed, err := ParseDescription(strings.NewReader(desc.String()))
	if err != nil {
		t.Fatalf("ParseDescription() error = %v", err)
	}
	if diff := cmp.Diff(desc.Directives(), parsed.Directives()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDescriptionSyntax(t *testing.T) {
	input := `# a native submit file
universe   = vanilla

executable = /bin/echo
arguments  = hello \
             world
Queue 2
`
	desc, err := ParseDescription(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseDescription() error = %v", err)
	}
	want := []Directive{
		{Comment: "a native submit file"},
		{Key: "universe", Value: "vanilla"},
		{Key: "executable", Value: "/bin/echo"},
		{Key: "arguments", Value: "hello              world"},
		{Key: "queue", Value: "2"},
	}
	if diff := cmp.Diff(want, desc.Directives()); diff != "" {
		t.Errorf("Directives() mismatch (-want +got):\n%s", diff)
	}
	if desc.QueueCount() != 1 {
		t.Errorf("QueueCount() = %d; want 1", desc.QueueCount())
	}
}

func TestParseDescriptionErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		parseLine int // 0 means a non-ParseError
	}{
		{"missing equals", "executable = /bin/true\nrequest_cpus 2\nqueue\n", 2},
		{"key with space", "executable = /bin/true\nrequest cpus = 2\nqueue\n", 2},
		{"empty key", "= 2\n", 1},
		{"dangling continuation", "executable = /bin/true\nqueue\narguments = a \\\n", 3},
		{"no executable", "universe = vanilla\nqueue\n", 0},
		{"no queue", "executable = /bin/true\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDescription(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ParseDescription() succeeded; want error")
			}
			if !errors.Is(err, ErrInvalidDescription) {
				t.Errorf("error %v does not wrap ErrInvalidDescription", err)
			}
			var pe *ParseError
			if tt.parseLine == 0 {
				if errors.As(err, &pe) {
					t.Errorf("unexpected ParseError %v", err)
				}
				return
			}
			if !errors.As(err, &pe) {
				t.Fatalf("error type = %T; want *ParseError", err)
			}
			if pe.Line != tt.parseLine {
				t.Errorf("Line = %d; want %d", pe.Line, tt.parseLine)
			}
		})
	}
}
