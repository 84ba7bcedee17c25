// Package whereflags parses -where comparisons such as "a.b>=10" or
// 'name=="x"' into a predicate.  The right side is a JSON value or, when
// it is not valid JSON, a bare string.
package whereflags

import (
	"flag"
	"fmt"
	"strings"

	"github.com/brimdata/arbor"
	"github.com/brimdata/arbor/expr"
)

// Longer operators precede their prefixes.
var ops = []struct {
	token string
	build func(l, r expr.Expr) *expr.Binary
}{
	{"==", expr.Eq},
	{"!=", expr.Ne},
	{"<=", expr.Le},
	{">=", expr.Ge},
	{"<", expr.Lt},
	{">", expr.Gt},
	{"=", expr.Eq},
}

type Flags struct {
	preds []expr.Expr
	texts []string
}

func (f *Flags) SetFlags(fs *flag.FlagSet) {
	fs.Var(f, "where", "only documents matching comparison, e.g., a.b>=10 (may be repeated)")
}

func (f *Flags) String() string {
	return strings.Join(f.texts, " and ")
}

func (f *Flags) Set(s string) error {
	e, err := Parse(s)
	if err != nil {
		return err
	}
	f.preds = append(f.preds, e)
	f.texts = append(f.texts, s)
	return nil
}

// Predicate returns the conjunction of the comparisons or nil when there
// are none.
func (f *Flags) Predicate() expr.Expr {
	var out expr.Expr
	for _, e := range f.preds {
		if out == nil {
			out = e
		} else {
			out = expr.And(out, e)
		}
	}
	return out
}

func Parse(s string) (expr.Expr, error) {
	at, op := -1, -1
	for k, o := range ops {
		if i := strings.Index(s, o.token); i >= 0 && (at < 0 || i < at) {
			at, op = i, k
		}
	}
	if at < 0 {
		return nil, fmt.Errorf("comparison %q: no operator", s)
	}
	path := strings.TrimSpace(s[:at])
	if path == "" {
		return nil, fmt.Errorf("comparison %q: missing field", s)
	}
	text := strings.TrimSpace(s[at+len(ops[op].token):])
	val, err := arbor.ParseJSON([]byte(text))
	if err != nil {
		val = arbor.NewString(text)
	}
	return ops[op].build(expr.Path(path), expr.Lit(val)), nil
}
