package session

import (
	"strings"
	"time"
)

// DefaultSubmitBin is the scheduler command run on the submit host.
const DefaultSubmitBin = "condor_submit"

// Option configures a Session.
type Option func(*Session)

// WithSubmitBin sets the remote condor_submit command. Empty keeps the default.
func WithSubmitBin(bin string) Option {
	return func(s *Session) {
		if bin = strings.TrimSpace(bin); bin != "" {
			s.submitBin = bin
		}
	}
}

// WithEnv exports the named local environment variables into every job.
// Unset variables are skipped.
func WithEnv(keys ...string) Option {
	return func(s *Session) {
		s.envKeys = append(s.envKeys, keys...)
	}
}

// WithDryRun writes submit descriptions without running condor_submit.
func WithDryRun(dryRun bool) Option {
	return func(s *Session) { s.dryRun = dryRun }
}

// WithRemoveSubmitFile deletes the submit description after a successful submission.
func WithRemoveSubmitFile(remove bool) Option {
	return func(s *Session) { s.removeSubmitFile = remove }
}

// WithClock replaces the clock used for submit file names.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}
