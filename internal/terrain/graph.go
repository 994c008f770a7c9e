package terrain

import (
	"github.com/pkg/errors"
)

// Node is one step of the frame graph.
type Node interface {
	Name() string
	Run(ctx *FrameContext)
}

type nodeFunc struct {
	name string
	fn   func(ctx *FrameContext)
}

func (n nodeFunc) Name() string {
	return n.name
}

func (n nodeFunc) Run(ctx *FrameContext) {
	n.fn(ctx)
}

// NodeFunc adapts fn to a Node.
func NodeFunc(name string, fn func(ctx *FrameContext)) Node {
	return nodeFunc{name: name, fn: fn}
}

// Graph runs nodes in dependency order. Among nodes whose dependencies are
// met, the one added first runs first.
type Graph struct {
	nodes []Node
	index map[string]int
	after [][]int
	order []Node
}

func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

func (g *Graph) AddNode(n Node) error {
	if _, ok := g.index[n.Name()]; ok {
		return errors.Errorf("graph: duplicate node %q", n.Name())
	}
	g.index[n.Name()] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.after = append(g.after, nil)
	g.order = nil
	return nil
}

// AddEdge makes before run ahead of after.
func (g *Graph) AddEdge(before, after string) error {
	b, ok := g.index[before]
	if !ok {
		return errors.Errorf("graph: unknown node %q", before)
	}
	a, ok := g.index[after]
	if !ok {
		return errors.Errorf("graph: unknown node %q", after)
	}
	g.after[b] = append(g.after[b], a)
	g.order = nil
	return nil
}

// Order returns the run order, or an error naming the nodes left on a cycle.
func (g *Graph) Order() ([]Node, error) {
	if g.order != nil {
		return g.order, nil
	}
	indeg := make([]int, len(g.nodes))
	for _, next := range g.after {
		for _, a := range next {
			indeg[a]++
		}
	}
	done := make([]bool, len(g.nodes))
	order := make([]Node, 0, len(g.nodes))
	for len(order) < len(g.nodes) {
		pick := -1
		for i := range g.nodes {
			if !done[i] && indeg[i] == 0 {
				pick = i
				break
			}
		}
		if pick < 0 {
			var stuck []string
			for i, n := range g.nodes {
				if !done[i] {
					stuck = append(stuck, n.Name())
				}
			}
			return nil, errors.Errorf("graph: cycle among %v", stuck)
		}
		done[pick] = true
		order = append(order, g.nodes[pick])
		for _, a := range g.after[pick] {
			indeg[a]--
		}
	}
	g.order = order
	return order, nil
}

func (g *Graph) Run(ctx *FrameContext) error {
	order, err := g.Order()
	if err != nil {
		return err
	}
	for _, n := range order {
		n.Run(ctx)
	}
	return nil
}
