package terrain

import (
	"fmt"

	"github.com/oisee/emergent-adventure/internal/bitset"
)

// Catalog holds the adjacency and weight tables for a tile vocabulary.
// Raw tables are per-direction and not required to be symmetric; the
// solver only ever sees the normalized tables, where a pairing is allowed
// only if both sides permit it.
type Catalog struct {
	NumTiles int

	// Raw allowed-neighbor masks, indexed [direction][tile].
	allowed [4][]bitset.Mask

	// Normalized masks: allowed[d][t] AND-mirrored against the opposite
	// direction, so one-sided entries cannot produce contradictions.
	normalized [4][]bitset.Mask

	// Weights bias the collapse draw. All weights default to 1.
	Weights []int

	// Passable marks tiles the hero can walk through.
	Passable bitset.Mask
}

// NewCatalog creates an empty catalog for numTiles tile types.
func NewCatalog(numTiles int) *Catalog {
	if numTiles < 1 || numTiles > bitset.MaxBits {
		panic(fmt.Sprintf("terrain: catalog size %d out of range", numTiles))
	}
	c := &Catalog{NumTiles: numTiles}
	for d := 0; d < 4; d++ {
		c.allowed[d] = make([]bitset.Mask, numTiles)
		c.normalized[d] = make([]bitset.Mask, numTiles)
	}
	c.Weights = make([]int, numTiles)
	for i := range c.Weights {
		c.Weights[i] = 1
	}
	return c
}

// Clone returns a deep copy, letting callers reweight per genre without
// touching the shared base catalog.
func (c *Catalog) Clone() *Catalog {
	out := NewCatalog(c.NumTiles)
	for d := 0; d < 4; d++ {
		copy(out.allowed[d], c.allowed[d])
		copy(out.normalized[d], c.normalized[d])
	}
	copy(out.Weights, c.Weights)
	out.Passable = c.Passable
	return out
}

// AllowSymmetric permits a and b as neighbors of each other in any
// direction.
func (c *Catalog) AllowSymmetric(a, b TileType) {
	for d := 0; d < 4; d++ {
		c.allowed[d][a] |= b.Mask()
		c.allowed[d][b] |= a.Mask()
	}
	c.normalize()
}

// AllowDirectional permits tileTo in direction dir of tileFrom, and
// records the mirrored permission on tileTo's side.
func (c *Catalog) AllowDirectional(from, to TileType, dir Direction) {
	c.allowed[dir][from] |= to.Mask()
	c.allowed[dir.Opposite()][to] |= from.Mask()
	c.normalize()
}

// normalize rebuilds the effective tables. Tile u is an effective
// neighbor of t in direction d only when t lists u for d AND u lists t
// for the opposite of d.
func (c *Catalog) normalize() {
	for d := 0; d < 4; d++ {
		opp := Direction(d).Opposite()
		for t := 0; t < c.NumTiles; t++ {
			var m bitset.Mask
			for u := 0; u < c.NumTiles; u++ {
				if c.allowed[d][t].Has(u) && c.allowed[opp][u].Has(int(TileType(t))) {
					m = m.Set(u)
				}
			}
			c.normalized[d][t] = m
		}
	}
}

// AllowedNeighbors returns the union of effective allowed-neighbor masks,
// in the given direction, over every tile still present in possibilities.
func (c *Catalog) AllowedNeighbors(possibilities bitset.Mask, dir Direction) bitset.Mask {
	var m bitset.Mask
	for t := 0; t < c.NumTiles; t++ {
		if possibilities.Has(t) {
			m |= c.normalized[dir][t]
		}
	}
	return m
}

// CanBeNeighbors reports whether a may sit in direction dir of b under the
// normalized tables.
func (c *Catalog) CanBeNeighbors(b, a TileType, dir Direction) bool {
	return c.normalized[dir][b].Has(int(a))
}

// FullDomain returns the mask with every catalog tile possible.
func (c *Catalog) FullDomain() bitset.Mask {
	return bitset.Full(c.NumTiles)
}

// IsPassable reports whether the tile belongs to the traversable set.
func (c *Catalog) IsPassable(t TileType) bool {
	return c.Passable.Has(int(t))
}

// DefaultCatalog returns the baseline 16-tile overworld catalog: natural
// transitions (forest-clearing, road-village), hard barriers (mountains,
// open water), and remote special sites (ruins, dungeons).
func DefaultCatalog() *Catalog {
	c := NewCatalog(NumTiles)

	sym := func(pairs ...[2]TileType) {
		for _, p := range pairs {
			for d := 0; d < 4; d++ {
				c.allowed[d][p[0]] |= p[1].Mask()
				c.allowed[d][p[1]] |= p[0].Mask()
			}
		}
	}

	sym(
		// Natural terrain.
		[2]TileType{TileForest, TileForest},
		[2]TileType{TileForest, TileClearing},
		[2]TileType{TileForest, TileRoad},
		[2]TileType{TileForest, TileMountain},
		[2]TileType{TileForest, TileRuins},
		[2]TileType{TileForest, TileSwamp},
		[2]TileType{TileClearing, TileClearing},
		[2]TileType{TileClearing, TileRoad},
		[2]TileType{TileClearing, TileVillage},
		[2]TileType{TileClearing, TileRuins},
		[2]TileType{TileClearing, TileRiver},
		[2]TileType{TileClearing, TileLake},
		[2]TileType{TileRiver, TileRiver},
		[2]TileType{TileRiver, TileBridge},
		[2]TileType{TileRiver, TileLake},
		[2]TileType{TileRiver, TileSwamp},
		[2]TileType{TileRiver, TileForest},
		[2]TileType{TileRoad, TileRoad},
		[2]TileType{TileRoad, TileVillage},
		[2]TileType{TileRoad, TileCastle},
		[2]TileType{TileRoad, TileBridge},
		[2]TileType{TileRoad, TileTavern},
		[2]TileType{TileRoad, TileTemple},
		[2]TileType{TileRoad, TileTower},
		[2]TileType{TileMountain, TileMountain},
		[2]TileType{TileMountain, TileCave},
		[2]TileType{TileMountain, TileTemple},
		[2]TileType{TileCave, TileForest},
		[2]TileType{TileCave, TileDungeon},

		// Civilized areas.
		[2]TileType{TileVillage, TileTavern},
		[2]TileType{TileCastle, TileTower},
		[2]TileType{TileCastle, TileClearing},
		[2]TileType{TileTower, TileClearing},
		[2]TileType{TileTower, TileMountain},
		[2]TileType{TileTavern, TileClearing},
		[2]TileType{TileTemple, TileClearing},
		[2]TileType{TileTemple, TileRuins},

		// Special areas.
		[2]TileType{TileSwamp, TileSwamp},
		[2]TileType{TileSwamp, TileRuins},
		[2]TileType{TileRuins, TileRuins},
		[2]TileType{TileRuins, TileDungeon},
		[2]TileType{TileLake, TileLake},
		[2]TileType{TileBridge, TileClearing},
		[2]TileType{TileDungeon, TileMountain},
	)
	c.normalize()

	for _, t := range []TileType{
		TileForest, TileClearing, TileRoad, TileCave, TileVillage,
		TileCastle, TileRuins, TileTower, TileBridge, TileTavern,
		TileTemple, TileDungeon,
	} {
		c.Passable = c.Passable.Set(int(t))
	}

	return c
}
