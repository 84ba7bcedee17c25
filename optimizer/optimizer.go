// Package optimizer rewrites plans with a fixed-point loop over a set of
// rules.  Rules move or merge whole plan nodes and never look inside an
// expression beyond the fields it reads.
package optimizer

import (
	"fmt"

	"github.com/brimdata/arbor/plan"
	"go.uber.org/zap"
)

// MaxIterations bounds the rewrite loop regardless of plan length.
const MaxIterations = 100

type Rule interface {
	// Apply rewrites p and reports whether it changed anything.
	Apply(*plan.Plan) bool
	Name() string
}

type Optimizer struct {
	rules  []Rule
	logger *zap.Logger
}

// New returns an optimizer running rules in order.  With no rules it runs
// DefaultRules.
func New(logger *zap.Logger, rules ...Rule) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Optimizer{rules: rules, logger: logger}
}

func DefaultRules() []Rule {
	return []Rule{&FilterFusion{}, &PredicatePushdown{}}
}

// Optimize runs every rule until none changes the plan or the iteration
// cap of min(2×len(p), MaxIterations) is reached.  It returns the number of
// rule applications that changed the plan.
func (o *Optimizer) Optimize(p *plan.Plan) int {
	limit := 2 * p.Len()
	if limit > MaxIterations {
		limit = MaxIterations
	}
	var changes int
	for iter := 0; iter < limit; iter++ {
		changed := false
		for _, r := range o.rules {
			if r.Apply(p) {
				changes++
				changed = true
				o.logger.Debug("Rule applied", zap.String("rule", r.Name()), zap.Int("iteration", iter))
			}
		}
		if !changed {
			break
		}
	}
	if debug {
		if name, ok := o.Converged(p); !ok {
			panic(fmt.Sprintf("optimizer: rule %s still changes the plan after %d changes:\n%s", name, changes, p.Describe()))
		}
	}
	o.logger.Debug("Plan optimized", zap.Int("changes", changes), zap.Int("nodes", p.Len()))
	return changes
}

// Converged applies each rule to a copy of p and reports the first rule
// that would change it.
func (o *Optimizer) Converged(p *plan.Plan) (string, bool) {
	for _, r := range o.rules {
		if r.Apply(p.Clone()) {
			return r.Name(), false
		}
	}
	return "", true
}
