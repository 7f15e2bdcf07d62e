package config

import (
	"time"

	"github.com/Justype/condorlink/internal/condor"
)

const VERSION = "0.3.0"

// MinCondorVersion is the oldest HTCondor release whose submit language
// supports every directive condorlink writes.
const MinCondorVersion = "9.0.0"

// Config holds global application settings
type Config struct {
	Debug   bool
	Version string

	// Submit host
	Host           string
	User           string
	Port           int
	ProjectSpace   string
	IdentityFiles  []string
	SSHConfigFile  string
	KnownHostsFile string
	HostKeyPolicy  string
	ConnectTimeout time.Duration
	PasswordEnv    string
	PasswordFile   string

	// Submission
	SubmitBin        string
	ExportEnv        []string
	RemoveSubmitFile bool

	// Resource defaults for job files that omit them
	Defaults condor.ConfigurationOptions
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults resets Global to built-in defaults.
func LoadDefaults() {
	Global = Config{
		Debug:          false,
		Version:        VERSION,
		HostKeyPolicy:  "accept-new",
		ConnectTimeout: 30 * time.Second,
		SubmitBin:      "condor_submit",
		Defaults:       condor.DefaultConfigurationOptions(),
	}
}
