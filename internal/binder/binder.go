// Package binder assigns plot anchors to concrete grid cells and proves
// the bound world is completable: every anchor reachable from the
// previous one, in the story's topological order, over passable terrain.
package binder

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/oisee/emergent-adventure/internal/plot"
	"github.com/oisee/emergent-adventure/internal/terrain"
)

// ErrRepairNeeded marks transient bind failures. The orchestrator retries
// the whole pipeline with a fresh sub-seed; nothing is patched in place.
var ErrRepairNeeded = errors.New("binder: repair needed")

// RepairReason identifies why a bind failed.
type RepairReason int

const (
	NoMatchingTerrain RepairReason = iota
	Unreachable
)

// String returns the string representation of a RepairReason.
func (r RepairReason) String() string {
	switch r {
	case NoMatchingTerrain:
		return "no_matching_terrain"
	case Unreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// RepairError carries the failing reason and the nodes involved.
type RepairError struct {
	Reason RepairReason
	Node   int // node lacking terrain, or destination of the broken leg
	From   int // origin of the broken leg, -1 when not applicable
}

func (e *RepairError) Error() string {
	switch e.Reason {
	case NoMatchingTerrain:
		return fmt.Sprintf("binder: no terrain matches anchor of node %d", e.Node)
	case Unreachable:
		return fmt.Sprintf("binder: node %d unreachable from node %d", e.Node, e.From)
	default:
		return "binder: repair needed"
	}
}

// Unwrap ties every RepairError to ErrRepairNeeded so callers can match
// the class with errors.Is.
func (e *RepairError) Unwrap() error {
	return ErrRepairNeeded
}

// Position is a grid coordinate.
type Position struct {
	X, Y int
}

// Binding maps plot node ids to the grid cells hosting them.
type Binding map[int]Position

// Binder places anchors on a collapsed grid.
type Binder struct {
	Width, Height int
	Tiles         []terrain.TileType
	Catalog       *terrain.Catalog
}

// New creates a binder over a collapsed row-major tile grid.
func New(width, height int, tiles []terrain.TileType, catalog *terrain.Catalog) *Binder {
	return &Binder{Width: width, Height: height, Tiles: tiles, Catalog: catalog}
}

// Bind assigns every anchor-tagged node to a matching cell and verifies
// consecutive reachability in story order. Assignment is greedy over the
// topological order, preferring cells near the previous anchor; ties are
// broken with the seeded stream.
func (b *Binder) Bind(graph *plot.Graph, seed int64) (Binding, error) {
	rng := rand.New(rand.NewSource(seed))

	binding := make(Binding, len(graph.Nodes))
	used := make(map[Position]bool, len(graph.Nodes))

	prev := Position{-1, -1}
	for _, id := range graph.Order {
		node := graph.Nodes[id]
		if node.Anchor == "" {
			continue
		}

		candidates := b.matchingCells(node.Anchor, used)
		if len(candidates) == 0 {
			return nil, &RepairError{Reason: NoMatchingTerrain, Node: id, From: -1}
		}

		var pos Position
		if prev.X < 0 {
			pos = candidates[rng.Intn(len(candidates))]
		} else {
			pos = b.nearestCandidate(candidates, prev, rng)
		}

		binding[id] = pos
		used[pos] = true
		prev = pos
	}

	if err := b.verifyOrder(graph, binding); err != nil {
		return nil, err
	}
	return binding, nil
}

// matchingCells returns unused cells whose tile category matches the
// anchor tag, scanning row-major for determinism.
func (b *Binder) matchingCells(anchor string, used map[Position]bool) []Position {
	want := terrain.AnchorTiles(anchor)
	var out []Position
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if !want.Has(int(b.Tiles[y*b.Width+x])) {
				continue
			}
			pos := Position{x, y}
			if used[pos] {
				continue
			}
			out = append(out, pos)
		}
	}
	return out
}

// nearestCandidate picks the candidate with the shortest walking distance
// from prev. Candidates the walk cannot reach at all rank after every
// reachable one; the final reachability verdict belongs to verifyOrder.
func (b *Binder) nearestCandidate(candidates []Position, prev Position, rng *rand.Rand) Position {
	dist := b.distancesFrom(prev)

	best := -1
	var ties []Position
	for _, c := range candidates {
		d := b.arrivalDistance(dist, c)
		if d < 0 {
			continue
		}
		if best < 0 || d < best {
			best = d
			ties = ties[:0]
			ties = append(ties, c)
		} else if d == best {
			ties = append(ties, c)
		}
	}

	if len(ties) == 0 {
		// Nothing reachable; any candidate yields the same verdict.
		return candidates[rng.Intn(len(candidates))]
	}
	return ties[rng.Intn(len(ties))]
}

// distancesFrom runs BFS over passable cells, returning -1 for cells the
// walk cannot reach. The start cell itself is always distance 0: the hero
// stands there even when the tile category is a wall for travel purposes.
func (b *Binder) distancesFrom(start Position) []int {
	dist := make([]int, b.Width*b.Height)
	for i := range dist {
		dist[i] = -1
	}

	queue := []Position{start}
	dist[start.Y*b.Width+start.X] = 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[cur.Y*b.Width+cur.X]

		for _, dir := range terrain.AllDirections() {
			dx, dy := dir.Offset()
			nx, ny := cur.X+dx, cur.Y+dy
			if nx < 0 || nx >= b.Width || ny < 0 || ny >= b.Height {
				continue
			}
			idx := ny*b.Width + nx
			if dist[idx] >= 0 {
				continue
			}
			if !b.Catalog.IsPassable(b.Tiles[idx]) {
				continue
			}
			dist[idx] = d + 1
			queue = append(queue, Position{nx, ny})
		}
	}
	return dist
}

// arrivalDistance returns the walking distance to pos, counting standing
// on an adjacent passable cell as arrival when pos itself is impassable
// (a lair in the mountains is reached from its foot). Returns -1 when
// unreachable.
func (b *Binder) arrivalDistance(dist []int, pos Position) int {
	if d := dist[pos.Y*b.Width+pos.X]; d >= 0 {
		return d
	}
	best := -1
	for _, dir := range terrain.AllDirections() {
		dx, dy := dir.Offset()
		nx, ny := pos.X+dx, pos.Y+dy
		if nx < 0 || nx >= b.Width || ny < 0 || ny >= b.Height {
			continue
		}
		if d := dist[ny*b.Width+nx]; d >= 0 && (best < 0 || d+1 < best) {
			best = d + 1
		}
	}
	return best
}

// verifyOrder confirms each consecutive anchor pair in story order is
// connected by passable terrain.
func (b *Binder) verifyOrder(graph *plot.Graph, binding Binding) error {
	prevID := -1
	for _, id := range graph.Order {
		pos, ok := binding[id]
		if !ok {
			continue
		}
		if prevID >= 0 {
			from := binding[prevID]
			dist := b.distancesFrom(from)
			if b.arrivalDistance(dist, pos) < 0 {
				return &RepairError{Reason: Unreachable, Node: id, From: prevID}
			}
		}
		prevID = id
	}
	return nil
}

// Path returns the shortest passable path between two cells, inclusive of
// both endpoints, or nil when unreachable. Used by world summaries.
func (b *Binder) Path(from, to Position) []Position {
	if from == to {
		return []Position{from}
	}

	cameFrom := make(map[Position]Position)
	seen := map[Position]bool{from: true}
	queue := []Position{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, dir := range terrain.AllDirections() {
			dx, dy := dir.Offset()
			next := Position{cur.X + dx, cur.Y + dy}
			if next.X < 0 || next.X >= b.Width || next.Y < 0 || next.Y >= b.Height {
				continue
			}
			if seen[next] {
				continue
			}
			if next != to && !b.Catalog.IsPassable(b.Tiles[next.Y*b.Width+next.X]) {
				continue
			}
			seen[next] = true
			cameFrom[next] = cur

			if next == to {
				path := []Position{to}
				for p := cur; ; p = cameFrom[p] {
					path = append(path, p)
					if p == from {
						break
					}
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// Regions decomposes the grid into connected passable components, largest
// first. Diagnostic helper for world summaries.
func (b *Binder) Regions() [][]Position {
	seen := make([]bool, b.Width*b.Height)
	var regions [][]Position

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			idx := y*b.Width + x
			if seen[idx] || !b.Catalog.IsPassable(b.Tiles[idx]) {
				continue
			}

			var region []Position
			queue := []Position{{x, y}}
			seen[idx] = true
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				region = append(region, cur)

				for _, dir := range terrain.AllDirections() {
					dx, dy := dir.Offset()
					nx, ny := cur.X+dx, cur.Y+dy
					if nx < 0 || nx >= b.Width || ny < 0 || ny >= b.Height {
						continue
					}
					nidx := ny*b.Width + nx
					if seen[nidx] || !b.Catalog.IsPassable(b.Tiles[nidx]) {
						continue
					}
					seen[nidx] = true
					queue = append(queue, Position{nx, ny})
				}
			}
			regions = append(regions, region)
		}
	}

	for i := 1; i < len(regions); i++ {
		for j := i; j > 0 && len(regions[j]) > len(regions[j-1]); j-- {
			regions[j], regions[j-1] = regions[j-1], regions[j]
		}
	}
	return regions
}
