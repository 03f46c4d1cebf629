package world

import (
	"fmt"
	"strings"

	"github.com/oisee/emergent-adventure/internal/binder"
	"github.com/oisee/emergent-adventure/internal/terrain"
	"github.com/oisee/emergent-adventure/internal/wfc"
)

// RenderMap returns the ASCII map, one rune per cell. Cells hosting a
// plot anchor render as '@' when markAnchors is set.
func (w *WorldState) RenderMap(markAnchors bool) string {
	anchored := make(map[binder.Position]bool, len(w.Binding))
	if markAnchors {
		for _, pos := range w.Binding {
			anchored[pos] = true
		}
	}

	var b strings.Builder
	for y := 0; y < w.Params.Height; y++ {
		for x := 0; x < w.Params.Width; x++ {
			if anchored[binder.Position{X: x, Y: y}] {
				b.WriteByte('@')
				continue
			}
			b.WriteRune(w.TileAt(x, y).Rune())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderPartial draws a mid-solve grid: collapsed cells as their tile
// rune, open cells as their entropy digit ('+' past 9). Diagnostic view
// for watching the collapse converge.
func RenderPartial(s *wfc.Solver) string {
	var b strings.Builder
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			cell := s.CellAt(x, y)
			if cell.Collapsed {
				b.WriteRune(cell.Type.Rune())
				continue
			}
			if e := cell.Entropy(); e <= 9 {
				b.WriteByte(byte('0' + e))
			} else {
				b.WriteByte('+')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Legend returns the tile glyph key for rendered maps.
func Legend() string {
	var b strings.Builder
	b.WriteString("Legend:\n")
	for t := terrain.TileType(0); t < terrain.NumTiles; t++ {
		fmt.Fprintf(&b, "  %c  %s\n", t.Rune(), t)
	}
	b.WriteString("  @  plot anchor\n")
	return b.String()
}

// Summary lists the story in playable order: each beat's function,
// description, grid cell, and the walking distance from the previous
// beat.
func (w *WorldState) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "seed %d  %dx%d  genre %s  attempt %d\n",
		w.Params.Seed, w.Params.Width, w.Params.Height, w.Params.Genre, w.Attempt)

	bnd := binder.New(w.Params.Width, w.Params.Height, w.Tiles, w.Catalog)

	prev := binder.Position{X: -1, Y: -1}
	for i, id := range w.Graph.Order {
		node := w.Graph.Nodes[id]
		fmt.Fprintf(&b, "%2d. %-12s %s", i+1, node.Function, node.Description)

		if pos, ok := w.Binding[id]; ok {
			fmt.Fprintf(&b, "  @(%d,%d)", pos.X, pos.Y)
			if prev.X >= 0 {
				if path := bnd.Path(prev, pos); path != nil {
					fmt.Fprintf(&b, "  %d steps", len(path)-1)
				}
			}
			prev = pos
		}
		b.WriteByte('\n')
	}
	return b.String()
}
