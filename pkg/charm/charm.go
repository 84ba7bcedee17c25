// Package charm is a minimalist CLI framework inspired by cobra and urfave/cli.
package charm

import (
	"errors"
	"flag"
	"io"
	"os"
)

var (
	// NeedHelp may be returned by a Run method to display the help of its
	// command.
	NeedHelp = errors.New("help")
	ErrNoRun = errors.New("no run method")
)

type Constructor func(Command, *flag.FlagSet) (Command, error)

type Command interface {
	Run([]string) error
}

type Spec struct {
	Name  string
	Usage string
	Short string
	Long  string
	New   Constructor
	// Hidden hides this command from help.
	Hidden bool
	// HiddenFlags (comma-separated) lists flags left out of help.
	HiddenFlags string
	// RedactedFlags (comma-separated) lists flags whose default value is
	// left out of help, e.g., for a password flag.
	RedactedFlags string
	children      []*Spec
	parent        *Spec
}

func (s *Spec) Add(child *Spec) {
	s.children = append(s.children, child)
	child.parent = s
}

func (s *Spec) lookupSub(name string) *Spec {
	for _, child := range s.children {
		if name == child.Name {
			return child
		}
	}
	return nil
}

// ExecRoot parses args against the command tree rooted at s and runs the
// selected command.  "help [-v] [command...]" and -h on any command print
// help to stderr.
func (s *Spec) ExecRoot(args []string) error {
	return s.execRoot(os.Stderr, Width(os.Stderr), args)
}

func (s *Spec) execRoot(w io.Writer, width int, args []string) error {
	if len(args) > 0 && args[0] == "help" && s.lookupSub("help") == nil {
		return s.help(w, width, args[1:])
	}
	p, rest, err := parse(s, args, nil)
	if err == nil {
		err = p.run(rest)
	}
	if err == NeedHelp {
		displayHelp(w, width, p, false)
		return nil
	}
	return err
}

func (s *Spec) help(w io.Writer, width int, args []string) error {
	var showHidden bool
	if len(args) > 0 && args[0] == "-v" {
		showHidden = true
		args = args[1:]
	}
	p, err := lookupPath(s, args)
	if err != nil {
		return err
	}
	displayHelp(w, width, p, showHidden)
	return nil
}
