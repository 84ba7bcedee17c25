package charm

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// instance is a command that has been created but not run.
type instance struct {
	spec    *Spec
	command Command
	flags   *flag.FlagSet
}

func newInstance(parent Command, spec *Spec) (*instance, error) {
	if spec.New == nil {
		return nil, fmt.Errorf("command %q: New function is nil", spec.Name)
	}
	flags := flag.NewFlagSet(spec.Name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	cmd, err := spec.New(parent, flags)
	if err != nil {
		return nil, err
	}
	return &instance{spec, cmd, flags}, nil
}

// options formats the flags of the instance for help.
func (i *instance) options(showHidden bool) []string {
	hidden := flagMap(i.spec.HiddenFlags)
	redacted := flagMap(i.spec.RedactedFlags)
	var body []string
	i.flags.VisitAll(func(f *flag.Flag) {
		name := "-" + f.Name
		if hidden[f.Name] {
			if !showHidden {
				return
			}
			name = "[" + name + "]"
		}
		line := name + " " + f.Usage
		if f.DefValue != "" && !redacted[f.Name] {
			line = fmt.Sprintf("%s (default %q)", line, f.DefValue)
		}
		body = append(body, line)
	})
	return body
}

type path []*instance

// parse walks args down the command tree.  Each command parses the flags
// that precede its subcommand name.
func parse(spec *Spec, args []string, parent Command) (path, []string, error) {
	var p path
	for {
		inst, err := newInstance(parent, spec)
		if err != nil {
			return nil, nil, err
		}
		p = append(p, inst)
		if err := inst.flags.Parse(args); err != nil {
			if err == flag.ErrHelp {
				return p, nil, NeedHelp
			}
			return p, nil, fmt.Errorf("%s: %w", p.pathname(), err)
		}
		args = inst.flags.Args()
		if len(args) == 0 {
			return p, args, nil
		}
		child := spec.lookupSub(args[0])
		if child == nil {
			return p, args, nil
		}
		spec, parent, args = child, inst.command, args[1:]
	}
}

// lookupPath builds the path named by a sequence of command names without
// parsing any flags.
func lookupPath(spec *Spec, names []string) (path, error) {
	inst, err := newInstance(nil, spec)
	if err != nil {
		return nil, err
	}
	p := path{inst}
	for k, name := range names {
		child := p.last().spec.lookupSub(name)
		if child == nil {
			return nil, fmt.Errorf("no such command: %s", strings.Join(names[:k+1], " "))
		}
		inst, err := newInstance(p.last().command, child)
		if err != nil {
			return nil, err
		}
		p = append(p, inst)
	}
	return p, nil
}

func (p path) run(args []string) error {
	err := p.last().command.Run(args)
	if err == ErrNoRun {
		if len(args) == 0 {
			err = fmt.Errorf("%q: requires a sub-command: %s", p.pathname(), p.subCommands())
		} else {
			err = fmt.Errorf("%q: no such sub-command %q: options are: %s", p.pathname(), args[0], p.subCommands())
		}
	}
	return err
}

func (p path) last() *instance {
	return p[len(p)-1]
}

func (p path) pathname() string {
	names := make([]string, 0, len(p))
	for _, inst := range p {
		names = append(names, inst.spec.Name)
	}
	return strings.Join(names, " ")
}

func (p path) subCommands() string {
	var names []string
	for _, spec := range p.last().spec.children {
		if !spec.Hidden {
			names = append(names, spec.Name)
		}
	}
	return strings.Join(names, " ")
}
