// Package wfc implements the bitmask wave-function-collapse solver that
// fills a terrain grid under the catalog's adjacency constraints.
package wfc

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/oisee/emergent-adventure/internal/bitset"
	"github.com/oisee/emergent-adventure/internal/terrain"
)

var (
	ErrContradiction          = errors.New("wfc: contradiction - no valid tiles for cell")
	ErrInvalidForcedPlacement = errors.New("wfc: forced placement violates catalog")
	ErrInvalidSize            = errors.New("wfc: invalid grid size")
	ErrMaxIterations          = errors.New("wfc: exceeded maximum iterations")
)

// Cell is a single grid position during solving. While unresolved it
// carries the domain of still-possible tiles; once collapsed it carries a
// single concrete type.
type Cell struct {
	Possible  bitset.Mask
	Collapsed bool
	Type      terrain.TileType
}

// Entropy returns the number of tiles still possible for the cell.
func (c *Cell) Entropy() int {
	if c.Collapsed {
		return 0
	}
	return c.Possible.Count()
}

// Forced pre-fixes a cell to a concrete tile before solving. Used to
// honor plot anchor placements.
type Forced struct {
	X, Y int
	Type terrain.TileType
}

// Solver runs wave function collapse over a rectangular grid.
type Solver struct {
	Width, Height int
	Catalog       *terrain.Catalog

	// MaxRestarts bounds randomized restarts after a contradiction.
	MaxRestarts int

	// Statistics from the last Solve call.
	Iterations int
	Restarts   int

	seed int64
	grid []Cell
	// Propagation worklist of cell indices.
	worklist []int
}

// NewSolver creates a solver for the given dimensions. The seed drives
// every random choice; two solvers with equal inputs produce equal grids.
func NewSolver(width, height int, catalog *terrain.Catalog, seed int64) *Solver {
	return &Solver{
		Width:       width,
		Height:      height,
		Catalog:     catalog,
		MaxRestarts: 10,
		seed:        seed,
	}
}

// Solve collapses the full grid and returns tiles in row-major order.
// Contradictions trigger bounded restarts with derived seeds before
// ErrContradiction surfaces. Forced placements inconsistent with the
// catalog fail immediately with ErrInvalidForcedPlacement and are never
// retried.
func (s *Solver) Solve(forced []Forced) ([]terrain.TileType, error) {
	if s.Width < 1 || s.Height < 1 {
		return nil, ErrInvalidSize
	}
	if err := s.validateForced(forced); err != nil {
		return nil, err
	}

	s.Iterations = 0
	s.Restarts = 0

	var lastErr error
	for attempt := 0; attempt <= s.MaxRestarts; attempt++ {
		// Derived seed per restart keeps the whole call deterministic.
		rng := rand.New(rand.NewSource(s.seed + int64(attempt)*1000))

		tiles, err := s.run(rng, forced)
		if err == nil {
			return tiles, nil
		}
		lastErr = err
		s.Restarts++
	}

	return nil, fmt.Errorf("wfc: gave up after %d restarts: %w", s.MaxRestarts, lastErr)
}

// ValidateForced checks forced placements without solving: bounds, tile
// range, duplicates, and pairwise adjacency between forced cells that
// happen to neighbor each other.
func (s *Solver) ValidateForced(forced []Forced) error {
	return s.validateForced(forced)
}

// validateForced checks bounds, tile range, duplicates, and pairwise
// adjacency between forced cells that happen to neighbor each other.
func (s *Solver) validateForced(forced []Forced) error {
	seen := make(map[int]terrain.TileType, len(forced))
	for _, f := range forced {
		if f.X < 0 || f.X >= s.Width || f.Y < 0 || f.Y >= s.Height {
			return fmt.Errorf("%w: (%d,%d) out of bounds", ErrInvalidForcedPlacement, f.X, f.Y)
		}
		if int(f.Type) < 0 || int(f.Type) >= s.Catalog.NumTiles {
			return fmt.Errorf("%w: tile %d out of catalog range", ErrInvalidForcedPlacement, f.Type)
		}
		idx := f.Y*s.Width + f.X
		if prev, dup := seen[idx]; dup && prev != f.Type {
			return fmt.Errorf("%w: (%d,%d) forced to both %s and %s",
				ErrInvalidForcedPlacement, f.X, f.Y, prev, f.Type)
		}
		seen[idx] = f.Type
	}

	for _, f := range forced {
		for _, dir := range terrain.AllDirections() {
			dx, dy := dir.Offset()
			nidx := (f.Y+dy)*s.Width + (f.X + dx)
			if f.X+dx < 0 || f.X+dx >= s.Width || f.Y+dy < 0 || f.Y+dy >= s.Height {
				continue
			}
			other, ok := seen[nidx]
			if !ok {
				continue
			}
			if !s.Catalog.CanBeNeighbors(f.Type, other, dir) {
				return fmt.Errorf("%w: %s at (%d,%d) cannot neighbor %s",
					ErrInvalidForcedPlacement, f.Type, f.X, f.Y, other)
			}
		}
	}
	return nil
}

// run performs one full collapse attempt.
func (s *Solver) run(rng *rand.Rand, forced []Forced) ([]terrain.TileType, error) {
	s.reset()

	for _, f := range forced {
		idx := f.Y*s.Width + f.X
		if !s.collapseCell(idx, f.Type) {
			// Double-forced cell already validated identical; a failure
			// here means propagation from an earlier anchor emptied it.
			return nil, ErrContradiction
		}
		if !s.propagate() {
			return nil, ErrContradiction
		}
	}

	maxIterations := s.Width * s.Height * 10
	for i := 0; i < maxIterations; i++ {
		s.Iterations++

		idx := s.findMinEntropyCell(rng)
		if idx < 0 {
			break // all collapsed
		}

		tile := s.drawTile(s.grid[idx].Possible, rng)
		if tile < 0 {
			return nil, ErrContradiction
		}
		if !s.collapseCell(idx, terrain.TileType(tile)) {
			return nil, ErrContradiction
		}
		if !s.propagate() {
			return nil, ErrContradiction
		}
	}

	tiles := make([]terrain.TileType, len(s.grid))
	for i := range s.grid {
		if !s.grid[i].Collapsed {
			return nil, ErrMaxIterations
		}
		tiles[i] = s.grid[i].Type
	}
	return tiles, nil
}

// reset reopens every cell to the full domain.
func (s *Solver) reset() {
	full := s.Catalog.FullDomain()
	s.grid = make([]Cell, s.Width*s.Height)
	for i := range s.grid {
		s.grid[i].Possible = full
	}
	s.worklist = s.worklist[:0]
}

// findMinEntropyCell returns the unresolved cell with the fewest
// possibilities, breaking ties with the seeded stream. Returns -1 when
// everything is collapsed.
func (s *Solver) findMinEntropyCell(rng *rand.Rand) int {
	minEntropy := s.Catalog.NumTiles + 1
	var candidates []int

	for i := range s.grid {
		cell := &s.grid[i]
		if cell.Collapsed {
			continue
		}
		entropy := cell.Possible.Count()
		if entropy == 1 {
			// Single possibility: no point scanning further.
			return i
		}
		if entropy < minEntropy {
			minEntropy = entropy
			candidates = candidates[:0]
			candidates = append(candidates, i)
		} else if entropy == minEntropy {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		return -1
	}
	return candidates[rng.Intn(len(candidates))]
}

// drawTile picks a tile from the domain, biased by catalog weights. When
// every remaining tile has weight 0 the draw falls back to uniform so
// forced-only tiles still resolve.
func (s *Solver) drawTile(domain bitset.Mask, rng *rand.Rand) int {
	total := 0
	for _, t := range domain.Bits() {
		total += s.Catalog.Weights[t]
	}
	if total == 0 {
		return domain.RandomBit(rng)
	}

	pick := rng.Intn(total)
	for _, t := range domain.Bits() {
		pick -= s.Catalog.Weights[t]
		if pick < 0 {
			return t
		}
	}
	return -1
}

// collapseCell fixes a cell to one tile and queues it for propagation.
func (s *Solver) collapseCell(idx int, tile terrain.TileType) bool {
	cell := &s.grid[idx]
	if !cell.Possible.Has(int(tile)) {
		return false
	}
	cell.Possible = tile.Mask()
	cell.Collapsed = true
	cell.Type = tile
	s.worklist = append(s.worklist, idx)
	return true
}

// propagate drains the worklist, shrinking each popped cell's neighbors
// to the intersection with the union of allowed-neighbor masks. Every
// step strictly shrinks a domain, so the loop always terminates.
func (s *Solver) propagate() bool {
	for len(s.worklist) > 0 {
		idx := s.worklist[len(s.worklist)-1]
		s.worklist = s.worklist[:len(s.worklist)-1]

		x, y := idx%s.Width, idx/s.Width
		cell := &s.grid[idx]

		for _, dir := range terrain.AllDirections() {
			dx, dy := dir.Offset()
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= s.Width || ny < 0 || ny >= s.Height {
				continue
			}

			neighbor := &s.grid[ny*s.Width+nx]
			if neighbor.Collapsed {
				continue
			}

			allowed := s.Catalog.AllowedNeighbors(cell.Possible, dir)
			next := neighbor.Possible & allowed
			if next == 0 {
				return false
			}
			if next != neighbor.Possible {
				neighbor.Possible = next
				if next.Count() == 1 {
					neighbor.Collapsed = true
					neighbor.Type = terrain.TileType(next.Lowest())
				}
				s.worklist = append(s.worklist, ny*s.Width+nx)
			}
		}
	}
	return true
}

// CellAt returns a copy of the cell at (x, y). Exposed for rendering
// partially solved grids.
func (s *Solver) CellAt(x, y int) Cell {
	return s.grid[y*s.Width+x]
}
