package plot

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/oisee/emergent-adventure/internal/bitset"
)

// Node is an instantiated plot function. Nodes live in the graph's arena
// and refer to each other by id, never by pointer.
type Node struct {
	ID          int
	Function    Function
	Requires    bitset.Mask
	Provides    bitset.Mask
	Description string
	Anchor      string
}

// Graph is the plot DAG. An edge from -> to means from must occur before
// to. Order holds the topological order chosen at planning time; every
// consumer walks the story in that order.
type Graph struct {
	Nodes []Node
	Order []int

	succs map[int][]int
	preds map[int][]int
}

// NewGraph returns an empty plot graph.
func NewGraph() *Graph {
	return &Graph{
		succs: make(map[int][]int),
		preds: make(map[int][]int),
	}
}

// AddNode appends a node to the arena and returns its id.
func (g *Graph) AddNode(n Node) int {
	n.ID = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
	g.succs[n.ID] = nil
	g.preds[n.ID] = nil
	return n.ID
}

// AddEdge records that from must occur before to. Duplicate edges are
// ignored.
func (g *Graph) AddEdge(from, to int) {
	for _, s := range g.succs[from] {
		if s == to {
			return
		}
	}
	g.succs[from] = append(g.succs[from], to)
	g.preds[to] = append(g.preds[to], from)
}

// Predecessors returns the ids of nodes that must occur before id.
func (g *Graph) Predecessors(id int) []int {
	return g.preds[id]
}

// Successors returns the ids of nodes that must occur after id.
func (g *Graph) Successors(id int) []int {
	return g.succs[id]
}

// Roots returns nodes with no predecessors, in id order.
func (g *Graph) Roots() []int {
	var roots []int
	for id := range g.Nodes {
		if len(g.preds[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// Reaches reports whether a path exists from id a to id b.
func (g *Graph) Reaches(a, b int) bool {
	if a == b {
		return true
	}
	seen := make([]bool, len(g.Nodes))
	stack := []int{a}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range g.succs[n] {
			if s == b {
				return true
			}
			if !seen[s] {
				seen[s] = true
				stack = append(stack, s)
			}
		}
	}
	return false
}

// TopoSort returns a topological order using Kahn's algorithm, breaking
// ties among ready nodes with the given stream. Returns an error if the
// graph has a cycle.
func (g *Graph) TopoSort(rng *rand.Rand) ([]int, error) {
	inDegree := make([]int, len(g.Nodes))
	for id := range g.Nodes {
		inDegree[id] = len(g.preds[id])
	}

	var ready []int
	for id := range g.Nodes {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Ints(ready)

	order := make([]int, 0, len(g.Nodes))
	for len(ready) > 0 {
		i := rng.Intn(len(ready))
		id := ready[i]
		ready = append(ready[:i], ready[i+1:]...)
		order = append(order, id)

		for _, s := range g.succs[id] {
			inDegree[s]--
			if inDegree[s] == 0 {
				ready = append(ready, s)
			}
		}
		sort.Ints(ready)
	}

	if len(order) != len(g.Nodes) {
		return nil, fmt.Errorf("plot: graph contains a cycle (%d of %d nodes ordered)",
			len(order), len(g.Nodes))
	}
	return order, nil
}

// Verify confirms causal soundness: every node's requirement mask must
// be covered by the union of its ancestors' provisions plus the initial
// predicates. Walking Order guarantees ancestors are processed first.
func (g *Graph) Verify(initial bitset.Mask) error {
	if len(g.Order) != len(g.Nodes) {
		return fmt.Errorf("plot: order covers %d of %d nodes", len(g.Order), len(g.Nodes))
	}

	// inherited[id] = provisions available from all transitive
	// predecessors of id.
	inherited := make([]bitset.Mask, len(g.Nodes))
	for _, id := range g.Order {
		avail := initial
		for _, p := range g.preds[id] {
			avail |= inherited[p] | g.Nodes[p].Provides
		}
		n := g.Nodes[id]
		if !n.Requires.Subset(avail) {
			missing := n.Requires &^ avail
			return fmt.Errorf("plot: node %d (%s) missing %v",
				id, n.Function, PredicateNames(missing))
		}
		inherited[id] = avail &^ initial
	}
	return nil
}
