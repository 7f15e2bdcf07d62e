package condor

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Args is an insertion-ordered mapping of long-option names to values.
// Rendering always follows insertion order; re-setting a key keeps its position.
type Args struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewArgs returns an empty argument mapping.
func NewArgs() *Args {
	return &Args{m: orderedmap.New[string, string]()}
}

// Set assigns value (formatted with fmt.Sprint) to key and returns a for chaining.
func (a *Args) Set(key string, value any) *Args {
	if a.m == nil {
		a.m = orderedmap.New[string, string]()
	}
	a.m.Set(key, formatArgValue(value))
	return a
}

// Get returns the rendered value of key.
func (a *Args) Get(key string) (string, bool) {
	if a == nil || a.m == nil {
		return "", false
	}
	return a.m.Get(key)
}

// Keys returns the keys in insertion order.
func (a *Args) Keys() []string {
	if a.Len() == 0 {
		return nil
	}
	keys := make([]string, 0, a.m.Len())
	for p := a.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Len returns the number of entries.
func (a *Args) Len() int {
	if a == nil || a.m == nil {
		return 0
	}
	return a.m.Len()
}

// Clone returns an independent copy. Cloning nil yields an empty mapping.
func (a *Args) Clone() *Args {
	out := NewArgs()
	if a.Len() == 0 {
		return out
	}
	for p := a.m.Oldest(); p != nil; p = p.Next() {
		out.m.Set(p.Key, p.Value)
	}
	return out
}

// String renders "--key value" per entry joined by single spaces.
// An entry with an empty value renders as a bare "--key" switch.
func (a *Args) String() string {
	if a.Len() == 0 {
		return ""
	}
	parts := make([]string, 0, a.m.Len())
	for p := a.m.Oldest(); p != nil; p = p.Next() {
		if p.Value != "" {
			parts = append(parts, "--"+p.Key+" "+p.Value)
		} else {
			parts = append(parts, "--"+p.Key)
		}
	}
	return strings.Join(parts, " ")
}

func formatArgValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// validateArgKey reports why key cannot be used as a long option, or "" if it can.
func validateArgKey(key string) string {
	switch {
	case key == "":
		return "argument name must not be empty"
	case strings.IndexFunc(key, isSpace) >= 0:
		return "argument name must not contain whitespace"
	case strings.HasPrefix(key, "-"):
		return `argument name must not start with "-"`
	}
	return ""
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
