// Package plan represents a query as a chain of operations over a source.
//
// A Plan is built append-only.  The optimizer rewrites it through a small
// set of mutation primitives that refuse any change that would break the
// chain, i.e., leave a node with other than one input or give a node more
// than one consumer.  Operations hold expressions by reference and the
// plan never edits them.
package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brimdata/arbor/source"
)

var (
	ErrBranched     = errors.New("plan: node has more than one consumer")
	ErrNotAdjacent  = errors.New("plan: nodes are not adjacent")
	ErrRemoveSource = errors.New("plan: the source node cannot be removed or moved")
	ErrNoNode       = errors.New("plan: no such node")
)

// NoInput is the input of the source node.
const NoInput = -1

type Node struct {
	ID      int
	Op      Op
	Input   int
	Context Context
}

func (n *Node) String() string {
	return fmt.Sprintf("%d: %s [%s]", n.ID, n.Op, n.Context)
}

type Plan struct {
	nodes  map[int]*Node
	nextID int
	root   int
}

// New returns a plan holding only a source node.
func New(src source.Source) *Plan {
	p := &Plan{nodes: make(map[int]*Node)}
	p.root = p.newNode(&Source{Source: src}, NoInput)
	return p
}

func (p *Plan) newNode(op Op, input int) int {
	id := p.nextID
	p.nextID++
	p.nodes[id] = &Node{ID: id, Op: op, Input: input, Context: ContextOf(op)}
	return id
}

// Add appends op to the chain and returns its node ID.
func (p *Plan) Add(op Op) int {
	p.root = p.newNode(op, p.root)
	return p.root
}

// Attach adds a node consuming input without advancing the root.  When
// input already has a consumer the plan is branched and the mutation
// primitives refuse to move the branched nodes.
func (p *Plan) Attach(input int, op Op) (int, error) {
	if _, ok := p.nodes[input]; !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoNode, input)
	}
	return p.newNode(op, input), nil
}

// Root returns the ID of the last node of the chain.
func (p *Plan) Root() int {
	return p.root
}

func (p *Plan) Node(id int) (*Node, bool) {
	n, ok := p.nodes[id]
	return n, ok
}

// Source returns the source of the chain.
func (p *Plan) Source() source.Source {
	for _, n := range p.nodes {
		if n.Input == NoInput {
			return n.Op.(*Source).Source
		}
	}
	return nil
}

// Len returns the number of nodes in the chain ending at the root.
func (p *Plan) Len() int {
	return len(p.Nodes())
}

// Nodes returns the chain from the source to the root.
func (p *Plan) Nodes() []*Node {
	var out []*Node
	for id := p.root; id != NoInput; {
		n := p.nodes[id]
		out = append(out, n)
		id = n.Input
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Consumers returns the IDs of the nodes reading from id in ID order.
func (p *Plan) Consumers(id int) []int {
	var out []int
	for k := 0; k < p.nextID; k++ {
		if n, ok := p.nodes[k]; ok && n.Input == id {
			out = append(out, k)
		}
	}
	return out
}

func (p *Plan) consumer(id int) (*Node, error) {
	consumers := p.Consumers(id)
	switch len(consumers) {
	case 0:
		return nil, nil
	case 1:
		return p.nodes[consumers[0]], nil
	}
	return nil, fmt.Errorf("%w: node %d", ErrBranched, id)
}

// Remove splices node id out of the chain by connecting its consumer to
// its input.
func (p *Plan) Remove(id int) error {
	n, ok := p.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoNode, id)
	}
	if n.Input == NoInput {
		return ErrRemoveSource
	}
	c, err := p.consumer(id)
	if err != nil {
		return err
	}
	if c != nil {
		c.Input = n.Input
	}
	if p.root == id {
		p.root = n.Input
	}
	delete(p.nodes, id)
	return nil
}

// Replace swaps the operation of node id and recomputes its context.
func (p *Plan) Replace(id int, op Op) error {
	n, ok := p.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoNode, id)
	}
	_, wasSource := n.Op.(*Source)
	if _, isSource := op.(*Source); wasSource != isSource {
		return ErrRemoveSource
	}
	n.Op = op
	n.Context = ContextOf(op)
	return nil
}

// SwapAdjacent reorders the run upstream → downstream, where downstream
// consumes upstream, so that downstream runs first.
func (p *Plan) SwapAdjacent(upstream, downstream int) error {
	up, ok := p.nodes[upstream]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoNode, upstream)
	}
	down, ok := p.nodes[downstream]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoNode, downstream)
	}
	if down.Input != upstream {
		return fmt.Errorf("%w: %d and %d", ErrNotAdjacent, upstream, downstream)
	}
	if up.Input == NoInput {
		return ErrRemoveSource
	}
	if len(p.Consumers(upstream)) != 1 {
		return fmt.Errorf("%w: node %d", ErrBranched, upstream)
	}
	next, err := p.consumer(downstream)
	if err != nil {
		return err
	}
	down.Input = up.Input
	up.Input = down.ID
	if next != nil {
		next.Input = up.ID
	}
	if p.root == downstream {
		p.root = upstream
	}
	return nil
}

// FindAdjacentPairs returns the (upstream, downstream) ID pairs of the
// chain, in chain order, for which pred holds.
func (p *Plan) FindAdjacentPairs(pred func(up, down *Node) bool) [][2]int {
	var out [][2]int
	nodes := p.Nodes()
	for k := 1; k < len(nodes); k++ {
		if pred(nodes[k-1], nodes[k]) {
			out = append(out, [2]int{nodes[k-1].ID, nodes[k].ID})
		}
	}
	return out
}

// Describe renders the chain one node per line.
func (p *Plan) Describe() string {
	var b strings.Builder
	for _, n := range p.Nodes() {
		b.WriteString(n.String())
		if n.Input != NoInput {
			fmt.Fprintf(&b, " <- %d", n.Input)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Ops returns the operations of the chain from the source to the root.
func (p *Plan) Ops() []Op {
	var ops []Op
	for _, n := range p.Nodes() {
		ops = append(ops, n.Op)
	}
	return ops
}

// Clone returns a copy of p that can be rewritten independently.  The
// operations themselves are shared.
func (p *Plan) Clone() *Plan {
	out := &Plan{nodes: make(map[int]*Node, len(p.nodes)), nextID: p.nextID, root: p.root}
	for id, n := range p.nodes {
		c := *n
		out.nodes[id] = &c
	}
	return out
}
