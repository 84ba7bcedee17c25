package optimizer

import (
	"testing"

	"github.com/brimdata/arbor/plan"
	"github.com/brimdata/arbor/source"
	"github.com/brimdata/arbor/store"
	"github.com/stretchr/testify/assert"
)

type restless struct{}

func (restless) Name() string           { return "restless" }
func (restless) Apply(*plan.Plan) bool { return true }

func TestIterationCap(t *testing.T) {
	if debug {
		t.Skip("the convergence assertion panics on a rule that never settles")
	}
	p := plan.New(source.NewMemory(store.Empty()))
	p.Add(&plan.Head{N: 1})
	p.Add(&plan.Head{N: 2})
	o := New(nil, restless{})
	assert.Equal(t, 6, o.Optimize(p))
	name, ok := o.Converged(p)
	assert.False(t, ok)
	assert.Equal(t, "restless", name)
}

func TestIterationCapIsBounded(t *testing.T) {
	if debug {
		t.Skip("the convergence assertion panics on a rule that never settles")
	}
	p := plan.New(source.NewMemory(store.Empty()))
	for k := 0; k < 80; k++ {
		p.Add(&plan.Head{N: k})
	}
	assert.Equal(t, MaxIterations, New(nil, restless{}).Optimize(p))
}

func TestConvergenceAssertion(t *testing.T) {
	if !debug {
		t.Skip("requires the arbordebug build tag")
	}
	p := plan.New(source.NewMemory(store.Empty()))
	assert.Panics(t, func() { New(nil, restless{}).Optimize(p) })
}
