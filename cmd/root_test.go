package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Justype/condorlink/internal/session"
)

func TestSubmissionFailure(t *testing.T) {
	se := session.NewSubmissionError("clf", "/proj/clf.sub", 1, "ERROR: bad image\n", errors.New("exit status 1"))

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct", se, true},
		{"wrapped", fmt.Errorf("job 2: %w", se), true},
		{"joined with close error", errors.Join(se, errors.New("failed to close session: EOF")), true},
		{"other", errors.New("no submit host configured"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := submissionFailure(tt.err)
			if ok != tt.want {
				t.Fatalf("submissionFailure() ok = %v; want %v", ok, tt.want)
			}
			if ok && got != se {
				t.Errorf("submissionFailure() = %p; want %p", got, se)
			}
		})
	}
	if name := submissionName(se); name != "clf" {
		t.Errorf("submissionName() = %q; want clf", name)
	}
}
