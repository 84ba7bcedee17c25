package charm

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kr/text"
	"golang.org/x/term"
)

const (
	tab          = "    "
	defaultWidth = 80
)

// Width returns the width of the terminal on f or defaultWidth when f is
// not a terminal.
func Width(f *os.File) int {
	if !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= len(tab) {
		return defaultWidth
	}
	return w
}

// flagMap maps each name in a comma-separated list to true.
func flagMap(flags string) map[string]bool {
	m := make(map[string]bool)
	for _, name := range strings.Split(flags, ",") {
		if name = strings.TrimSpace(name); name != "" {
			m[name] = true
		}
	}
	return m
}

func formatParagraphs(body string, width int) string {
	var chunks []string
	for _, paragraph := range strings.Split(strings.TrimSpace(body), "\n\n") {
		paragraph = strings.Join(strings.Fields(paragraph), " ")
		chunks = append(chunks, text.Wrap(paragraph, width-len(tab)))
	}
	return text.Indent(strings.Join(chunks, "\n\n"), tab)
}

func section(w io.Writer, heading, body string) {
	fmt.Fprintf(w, "%s\n%s\n\n", heading, strings.TrimRight(body, "\n"))
}

func list(lines []string) string {
	return text.Indent(strings.Join(lines, "\n"), tab)
}

func commands(spec *Spec, showHidden bool) []string {
	var lines []string
	for _, cmd := range spec.children {
		name := cmd.Name
		if cmd.Hidden {
			if !showHidden {
				continue
			}
			name = "[" + name + "]"
		}
		lines = append(lines, name+" - "+cmd.Short)
	}
	return lines
}

// options lists the flags of the last command followed by those of each
// ancestor under a heading naming it.
func options(p path, showHidden bool) []string {
	lines := p.last().options(showHidden)
	if len(lines) == 0 {
		lines = []string{"no flags for this command"}
	}
	for k := len(p) - 2; k >= 0; k-- {
		opts := p[k].options(showHidden)
		if len(opts) == 0 {
			continue
		}
		lines = append(lines, "", "["+p[:k+1].pathname()+" flags]")
		lines = append(lines, opts...)
	}
	return lines
}

func displayHelp(w io.Writer, width int, p path, showHidden bool) {
	spec := p.last().spec
	section(w, "NAME", tab+p.pathname()+" - "+spec.Short)
	section(w, "USAGE", tab+spec.Usage)
	section(w, "OPTIONS", list(options(p, showHidden)))
	if lines := commands(spec, showHidden); len(lines) > 0 {
		section(w, "COMMANDS", list(lines))
	}
	if strings.TrimSpace(spec.Long) != "" {
		section(w, "DESCRIPTION", formatParagraphs(spec.Long, width))
	}
}
