package field

import (
	"strings"
)

// Path is a sequence of field names leading from the root of a document
// to a nested value.  A root path is an empty slice.
type Path []string

func New(name string) Path {
	return Path{name}
}

// Dotted splits a dotted name like "a.b.c" into a Path.  The empty string
// is the root.
func Dotted(s string) Path {
	if s == "" {
		return Path{}
	}
	return strings.Split(s, ".")
}

func (p Path) String() string {
	if len(p) == 0 {
		return "this"
	}
	return strings.Join(p, ".")
}

func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Root returns the top-level field name of p or "" for the root path.
func (p Path) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0]
}

func (p Path) Leaf() string {
	return p[len(p)-1]
}

func (p Path) Equal(to Path) bool {
	if len(p) != len(to) {
		return false
	}
	for k := range p {
		if p[k] != to[k] {
			return false
		}
	}
	return true
}

func (p Path) HasPrefix(prefix Path) bool {
	return len(p) >= len(prefix) && prefix.Equal(p[:len(prefix)])
}

func (p Path) HasStrictPrefix(prefix Path) bool {
	return len(p) > len(prefix) && p.HasPrefix(prefix)
}

func DottedList(s string) List {
	var fields List
	for _, name := range strings.Split(s, ",") {
		fields = append(fields, Dotted(strings.TrimSpace(name)))
	}
	return fields
}

type List []Path

func (l List) String() string {
	names := make([]string, 0, len(l))
	for _, f := range l {
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}

func (l List) Has(in Path) bool {
	for _, f := range l {
		if f.Equal(in) {
			return true
		}
	}
	return false
}
