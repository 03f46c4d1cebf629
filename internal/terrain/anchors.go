package terrain

import "github.com/oisee/emergent-adventure/internal/bitset"

// anchorTiles maps a plot anchor tag to the tile categories that may host
// it. Tags are the planner's location hints.
var anchorTiles = map[string]bitset.Mask{
	"village":  TileVillage.Mask(),
	"home":     TileVillage.Mask() | TileTavern.Mask(),
	"road":     TileRoad.Mask() | TileBridge.Mask(),
	"cave":     TileCave.Mask(),
	"dungeon":  TileDungeon.Mask() | TileCave.Mask(),
	"tower":    TileTower.Mask(),
	"castle":   TileCastle.Mask(),
	"ruins":    TileRuins.Mask(),
	"temple":   TileTemple.Mask(),
	"tavern":   TileTavern.Mask(),
	"forest":   TileForest.Mask(),
	"mountain": TileMountain.Mask() | TileCave.Mask(),
	"clearing": TileClearing.Mask(),
}

// AnchorTiles returns the mask of tile types that can host the given
// anchor tag. Unknown tags fall back to clearings so a misspelled hint
// degrades instead of failing generation.
func AnchorTiles(tag string) bitset.Mask {
	if m, ok := anchorTiles[tag]; ok {
		return m
	}
	return TileClearing.Mask()
}

// KnownAnchorTag reports whether the tag has an explicit tile mapping.
func KnownAnchorTag(tag string) bool {
	_, ok := anchorTiles[tag]
	return ok
}
