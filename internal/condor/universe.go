package condor

import "strings"

// Universe is the HTCondor execution environment a job runs under.
type Universe string

const (
	// UniverseVanilla runs the executable as a bare process on the execute host.
	UniverseVanilla Universe = "vanilla"
	// UniverseDocker runs the executable inside a container image.
	UniverseDocker Universe = "docker"
)

// ParseUniverse converts a universe name (case-insensitive) to a Universe.
func ParseUniverse(s string) (Universe, error) {
	switch Universe(strings.ToLower(strings.TrimSpace(s))) {
	case UniverseVanilla:
		return UniverseVanilla, nil
	case UniverseDocker:
		return UniverseDocker, nil
	default:
		return "", NewConfigurationError("Universe", s, `must be "vanilla" or "docker"`)
	}
}

// IsContainer reports whether the universe runs jobs inside a container image.
func (u Universe) IsContainer() bool {
	return u == UniverseDocker
}

func (u Universe) String() string { return string(u) }
