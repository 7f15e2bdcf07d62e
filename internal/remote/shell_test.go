package remote

import (
	"testing"

	"github.com/alessio/shellescape"
)

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"/proj/space", "/proj/space"},
		{"clf-20240101T000000Z-0a1b2c3d-001.sub", "clf-20240101T000000Z-0a1b2c3d-001.sub"},
		{"with space", "'with space'"},
		{"it's", `'it'"'"'s'`},
		{"$(rm -rf /)", "'$(rm -rf /)'"},
		{"a;b", "'a;b'"},
		{"~/x", "'~/x'"},
	}
	for _, tt := range tests {
		if got := shellescape.Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileCommands(t *testing.T) {
	if got, want := mkdirCommand("/proj/my logs"), "mkdir -p '/proj/my logs'"; got != want {
		t.Errorf("mkdirCommand() = %q; want %q", got, want)
	}
	if got, want := writeCommand("/proj/a.sub"), "set -C && cat > /proj/a.sub"; got != want {
		t.Errorf("writeCommand() = %q; want %q", got, want)
	}
}

func TestShellCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"set -C && cat > /proj/a.sub", `sh -c 'set -C && cat > /proj/a.sub'`},
		{"mkdir -p '/proj/my logs'", `sh -c 'mkdir -p '"'"'/proj/my logs'"'"''`},
		{"command -v python", `sh -c 'command -v python'`},
	}
	for _, tt := range tests {
		if got := shellCommand(tt.in); got != tt.want {
			t.Errorf("shellCommand(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
