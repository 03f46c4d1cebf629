package world

import (
	"errors"
	"math/rand"

	"github.com/oisee/emergent-adventure/internal/plot"
	"github.com/oisee/emergent-adventure/internal/terrain"
	"github.com/oisee/emergent-adventure/internal/wfc"
)

// errAnchorCollision is a transient per-attempt failure: two anchors
// landed on the same cell and no adjacent cell was free.
var errAnchorCollision = errors.New("world: anchor cells collide")

// anchorPlacements turns the plan's anchor tags into forced grid cells.
// Anchors are spread across the map on a jittered grid so the story
// covers the world instead of clustering, then each gets a concrete tile
// drawn from its anchor category.
func (g *Generator) anchorPlacements(p Params, catalog *terrain.Catalog, graph *plot.Graph, seed int64) ([]wfc.Forced, error) {
	rng := rand.New(rand.NewSource(seed))

	var anchored []int
	for _, id := range graph.Order {
		if graph.Nodes[id].Anchor != "" {
			anchored = append(anchored, id)
		}
	}
	if len(anchored) == 0 {
		return nil, nil
	}

	positions := spreadPositions(rng, len(anchored), p.Width, p.Height)

	taken := make(map[[2]int]bool, len(anchored))
	forced := make([]wfc.Forced, 0, len(anchored))
	for i, id := range anchored {
		if i >= len(positions) {
			// More story beats than placement slots; the binder assigns
			// the rest to whatever terrain the collapse produced.
			break
		}

		x, y := positions[i][0], positions[i][1]
		if taken[[2]int{x, y}] {
			x, y = adjacentFree(taken, x, y, p.Width, p.Height)
			if x < 0 {
				return nil, errAnchorCollision
			}
		}
		taken[[2]int{x, y}] = true

		mask := terrain.AnchorTiles(graph.Nodes[id].Anchor)
		tile := mask.RandomBit(rng)
		if tile < 0 || tile >= catalog.NumTiles {
			tile = int(terrain.TileClearing)
		}

		forced = append(forced, wfc.Forced{X: x, Y: y, Type: terrain.TileType(tile)})
	}
	return forced, nil
}

// spreadPositions lays count positions on a rows-by-cols grid sized to
// hold them all, jittering each away from its cell center and clamping
// into the map interior.
func spreadPositions(rng *rand.Rand, count, width, height int) [][2]int {
	cols := 1
	for cols*cols < count {
		cols++
	}
	if cols < 2 {
		cols = 2
	}
	rows := (count + cols - 1) / cols

	cellW := width / cols
	cellH := height / rows

	positions := make([][2]int, 0, count)
	for i := 0; i < count; i++ {
		row, col := i/cols, i%cols

		x := col*cellW + cellW/2 + jitter(rng, cellW/3)
		y := row*cellH + cellH/2 + jitter(rng, cellH/3)

		positions = append(positions, [2]int{
			clampInterior(x, width),
			clampInterior(y, height),
		})
	}
	return positions
}

// jitter draws uniformly from [-span, span].
func jitter(rng *rand.Rand, span int) int {
	if span <= 0 {
		return 0
	}
	return rng.Intn(2*span+1) - span
}

// clampInterior keeps v off the map border when the axis is wide enough
// to have an interior.
func clampInterior(v, size int) int {
	lo, hi := 1, size-2
	if size <= 2 {
		lo, hi = 0, size-1
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// adjacentFree scans the four neighbors in fixed order for an untaken
// in-bounds cell. Returns -1, -1 when all are taken.
func adjacentFree(taken map[[2]int]bool, x, y, width, height int) (int, int) {
	for _, dir := range terrain.AllDirections() {
		dx, dy := dir.Offset()
		nx, ny := x+dx, y+dy
		if nx < 0 || nx >= width || ny < 0 || ny >= height {
			continue
		}
		if !taken[[2]int{nx, ny}] {
			return nx, ny
		}
	}
	return -1, -1
}
