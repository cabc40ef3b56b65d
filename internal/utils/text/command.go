// Package text holds the pure string helpers of the bot: the comment command
// parser and the templates used for mirror issues and status comments.
package text

import (
	"fmt"
	"regexp"
)

// UpstreamCommand is the command name that triggers mirroring.
const UpstreamCommand = "upstream"

// commandPattern matches `/command owner/repo` on a line of its own. The
// command and its argument must not be split across lines.
var commandPattern = regexp.MustCompile(`(?m)^[ \t]*/(\w+)[ \t]+([\w.-]+)/([\w.-]+)[ \t\r]*$`)

// Command is a parsed `/name owner/repo` directive.
type Command struct {
	Name  string
	Owner string
	Repo  string
}

// Target returns the target repository in "owner/repo" form.
func (c Command) Target() string {
	return fmt.Sprintf("%s/%s", c.Owner, c.Repo)
}

// ParseCommand extracts the first command found in a comment body.
// The second return value is false when the body holds no command.
func ParseCommand(body string) (Command, bool) {
	m := commandPattern.FindStringSubmatch(body)
	if m == nil {
		return Command{}, false
	}
	return Command{Name: m[1], Owner: m[2], Repo: m[3]}, true
}
