// Package terrain defines the overworld tile vocabulary and the adjacency
// catalog consumed by the constraint solver and the binder.
package terrain

import "github.com/oisee/emergent-adventure/internal/bitset"

// TileType identifies one of the 16 baseline terrain tiles.
type TileType int

const (
	TileForest TileType = iota
	TileClearing
	TileRiver
	TileRoad
	TileMountain
	TileCave
	TileVillage
	TileCastle
	TileSwamp
	TileRuins
	TileTower
	TileLake
	TileBridge
	TileTavern
	TileTemple
	TileDungeon

	// NumTiles is the size of the baseline catalog.
	NumTiles = 16
)

// String returns the string representation of a TileType.
func (t TileType) String() string {
	switch t {
	case TileForest:
		return "forest"
	case TileClearing:
		return "clearing"
	case TileRiver:
		return "river"
	case TileRoad:
		return "road"
	case TileMountain:
		return "mountain"
	case TileCave:
		return "cave"
	case TileVillage:
		return "village"
	case TileCastle:
		return "castle"
	case TileSwamp:
		return "swamp"
	case TileRuins:
		return "ruins"
	case TileTower:
		return "tower"
	case TileLake:
		return "lake"
	case TileBridge:
		return "bridge"
	case TileTavern:
		return "tavern"
	case TileTemple:
		return "temple"
	case TileDungeon:
		return "dungeon"
	default:
		return "unknown"
	}
}

// Rune returns the single-character map symbol for a TileType.
func (t TileType) Rune() rune {
	switch t {
	case TileForest:
		return 'T'
	case TileClearing:
		return '.'
	case TileRiver:
		return '~'
	case TileRoad:
		return '='
	case TileMountain:
		return '^'
	case TileCave:
		return 'O'
	case TileVillage:
		return 'V'
	case TileCastle:
		return 'C'
	case TileSwamp:
		return '%'
	case TileRuins:
		return 'R'
	case TileTower:
		return 'I'
	case TileLake:
		return 'L'
	case TileBridge:
		return '#'
	case TileTavern:
		return 't'
	case TileTemple:
		return '+'
	case TileDungeon:
		return 'D'
	default:
		return '?'
	}
}

// Mask returns the single-bit mask for a TileType.
func (t TileType) Mask() bitset.Mask {
	return bitset.Bit(int(t))
}

// Direction represents a cardinal direction in the grid.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// String returns the string representation of a Direction.
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Opposite returns the opposite direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case East:
		return West
	case South:
		return North
	default:
		return East
	}
}

// Offset returns the grid delta for moving one cell in this direction.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

// AllDirections returns the four cardinal directions in a fixed order.
func AllDirections() []Direction {
	return []Direction{North, East, South, West}
}
