package plot

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/oisee/emergent-adventure/internal/bitset"
)

var (
	// ErrUnsatisfiable means the goal's requirements cannot be reached
	// from the initial predicates under any template. A retry cannot
	// change that, so callers must not retry.
	ErrUnsatisfiable = errors.New("plot: goal unsatisfiable from initial predicates")

	// ErrTooComplex means planning exceeded the node cap. Caller
	// configuration error: pick a simpler goal or raise the cap.
	ErrTooComplex = errors.New("plot: plan exceeded node cap")
)

// Planner generates plot graphs backward from a goal function.
type Planner struct {
	Templates *Templates

	// MaxNodes caps the story length. Exceeding it is ErrTooComplex.
	MaxNodes int
}

// NewPlanner creates a planner over the given template catalog.
func NewPlanner(templates *Templates) *Planner {
	return &Planner{
		Templates: templates,
		MaxNodes:  24,
	}
}

// pendingEntry tracks a placed node's full requirement mask; later
// selections wire themselves before any entry they help satisfy.
type pendingEntry struct {
	id       int
	requires bitset.Mask
}

// Plan builds a plot DAG rooted at the goal function, working strictly
// backward: each step selects a template whose provisions cover open
// requirements, until everything traces to the initial predicates. The
// returned graph carries a precomputed topological order.
func (p *Planner) Plan(goal Function, initial bitset.Mask, seed int64) (*Graph, error) {
	goalVariants := p.Templates.For(goal)
	if len(goalVariants) == 0 {
		return nil, fmt.Errorf("plot: no templates for goal %s", goal)
	}

	rng := rand.New(rand.NewSource(seed))

	// Reject before search when no goal variant's requirements lie
	// inside the closure of predicates reachable from the initial state.
	closure := p.predicateClosure(initial)
	var feasible []Template
	var missing bitset.Mask
	for _, tpl := range goalVariants {
		if tpl.Requires.Subset(closure) {
			feasible = append(feasible, tpl)
		} else {
			missing |= tpl.Requires &^ closure
		}
	}
	if len(feasible) == 0 {
		return nil, fmt.Errorf("%w: %s needs %v", ErrUnsatisfiable,
			goal, PredicateNames(missing))
	}

	graph := NewGraph()

	goalTpl := feasible[rng.Intn(len(feasible))]
	goalID := graph.AddNode(Node{
		Function:    goalTpl.Function,
		Requires:    goalTpl.Requires,
		Provides:    goalTpl.Provides,
		Description: goalTpl.Description,
		Anchor:      goalTpl.Anchor,
	})

	pending := []pendingEntry{{id: goalID, requires: goalTpl.Requires}}
	open := goalTpl.Requires
	used := map[Function]bool{goalTpl.Function: true}

	for {
		unsatisfied := open &^ initial
		if unsatisfied == 0 {
			break
		}
		if len(graph.Nodes) >= p.MaxNodes {
			return nil, fmt.Errorf("%w: %d nodes", ErrTooComplex, len(graph.Nodes))
		}

		tpl, ok := p.selectTemplate(unsatisfied, closure, used, rng)
		if !ok {
			// The closure precheck covers the goal, but an unlucky
			// template draw can still strand a predicate.
			return nil, fmt.Errorf("%w: nothing provides %v", ErrUnsatisfiable,
				PredicateNames(unsatisfied))
		}

		id := graph.AddNode(Node{
			Function:    tpl.Function,
			Requires:    tpl.Requires,
			Provides:    tpl.Provides,
			Description: tpl.Description,
			Anchor:      tpl.Anchor,
		})
		used[tpl.Function] = true

		// The new node precedes every placed node it supplies.
		for _, entry := range pending {
			if tpl.Provides&entry.requires != 0 {
				graph.AddEdge(id, entry.id)
			}
		}
		// Placed nodes that supply the new node's own requirements
		// precede it, unless that would close a cycle.
		for _, entry := range pending {
			provider := graph.Nodes[entry.id]
			if provider.Provides&tpl.Requires != 0 && !graph.Reaches(id, entry.id) {
				graph.AddEdge(entry.id, id)
			}
		}

		open = (open &^ tpl.Provides) | tpl.Requires
		pending = append(pending, pendingEntry{id: id, requires: tpl.Requires})
	}

	order, err := graph.TopoSort(rng)
	if err != nil {
		return nil, err
	}
	graph.Order = order

	if err := graph.Verify(initial); err != nil {
		return nil, err
	}
	return graph, nil
}

// selectTemplate picks the template covering the most unsatisfied bits,
// breaking ties with the stream. Functions already used are skipped
// unless repeatable; when only used functions can provide a needed bit
// the duplicate rule is relaxed rather than stranding the plan. Templates
// whose own requirements fall outside the reachable closure are never
// chosen.
func (p *Planner) selectTemplate(unsatisfied, closure bitset.Mask, used map[Function]bool, rng *rand.Rand) (Template, bool) {
	for _, relaxed := range []bool{false, true} {
		bestGain := 0
		var best []Template

		for f := Function(0); f < NumFunctions; f++ {
			if !relaxed && used[f] && !f.Repeatable() {
				continue
			}
			for _, tpl := range p.Templates.For(f) {
				if !tpl.Requires.Subset(closure) {
					continue
				}
				gain := (tpl.Provides & unsatisfied).Count()
				if gain == 0 {
					continue
				}
				if gain > bestGain {
					bestGain = gain
					best = best[:0]
					best = append(best, tpl)
				} else if gain == bestGain {
					best = append(best, tpl)
				}
			}
		}

		if len(best) > 0 {
			return best[rng.Intn(len(best))], true
		}
	}
	return Template{}, false
}

// predicateClosure computes the fixpoint of predicates reachable from
// the initial state: a template fires once its requirements are inside
// the set, contributing its provisions.
func (p *Planner) predicateClosure(initial bitset.Mask) bitset.Mask {
	closure := initial
	for {
		next := closure
		for f := Function(0); f < NumFunctions; f++ {
			for _, tpl := range p.Templates.For(f) {
				if tpl.Requires.Subset(next) {
					next |= tpl.Provides
				}
			}
		}
		if next == closure {
			return closure
		}
		closure = next
	}
}
