package remote

import "github.com/alessio/shellescape"

// shellCommand runs cmd under sh whatever the login shell of the remote
// account is. Every remote command is written in POSIX sh syntax.
func shellCommand(cmd string) string {
	return "sh -c " + shellescape.Quote(cmd)
}
