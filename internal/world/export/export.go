// Package export serializes finalized worlds: a compact fixed-width
// binary record for the archive, and a YAML document for tooling. Both
// round-trip losslessly; two encodes of the same world are byte
// identical.
package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/oisee/emergent-adventure/internal/binder"
	"github.com/oisee/emergent-adventure/internal/bitset"
	"github.com/oisee/emergent-adventure/internal/plot"
	"github.com/oisee/emergent-adventure/internal/terrain"
	"github.com/oisee/emergent-adventure/internal/world"
)

// ErrBadRecord marks a binary blob that is not a valid world record.
var ErrBadRecord = errors.New("export: bad world record")

var magic = [4]byte{'E', 'A', 'W', 'D'}

const version = 1

// Encode packs a world into the binary record format.
func Encode(w *world.WorldState) []byte {
	var b bytes.Buffer

	b.Write(magic[:])
	b.WriteByte(version)

	writeU64(&b, uint64(w.Params.Seed))
	writeU16(&b, uint16(w.Params.Width))
	writeU16(&b, uint16(w.Params.Height))
	b.WriteByte(byte(w.Params.Goal))
	writeU16(&b, uint16(w.Attempt))
	writeStr8(&b, w.Params.Genre)

	for _, t := range w.Tiles {
		b.WriteByte(byte(t))
	}

	writeU16(&b, uint16(len(w.Graph.Nodes)))
	for _, n := range w.Graph.Nodes {
		b.WriteByte(byte(n.Function))
		writeU16(&b, uint16(n.Requires))
		writeU16(&b, uint16(n.Provides))
		writeStr8(&b, n.Anchor)
		writeStr8(&b, n.Description)

		preds := append([]int(nil), w.Graph.Predecessors(n.ID)...)
		sort.Ints(preds)
		b.WriteByte(byte(len(preds)))
		for _, p := range preds {
			writeU16(&b, uint16(p))
		}
	}

	for _, id := range w.Graph.Order {
		writeU16(&b, uint16(id))
	}

	bound := make([]int, 0, len(w.Binding))
	for id := range w.Binding {
		bound = append(bound, id)
	}
	sort.Ints(bound)
	writeU16(&b, uint16(len(bound)))
	for _, id := range bound {
		pos := w.Binding[id]
		writeU16(&b, uint16(id))
		writeU16(&b, uint16(pos.X))
		writeU16(&b, uint16(pos.Y))
	}

	return b.Bytes()
}

// Decode unpacks a binary record back into a world. The genre-styled
// catalog is rebuilt from the genre name, so renderers and summaries
// work on the decoded state.
func Decode(data []byte) (*world.WorldState, error) {
	r := &reader{data: data}

	var m [4]byte
	r.read(m[:])
	if m != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrBadRecord)
	}
	if v := r.byte(); v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadRecord, v)
	}

	w := &world.WorldState{}
	w.Params.Seed = int64(r.u64())
	w.Params.Width = int(r.u16())
	w.Params.Height = int(r.u16())
	w.Params.Goal = plot.Function(r.byte())
	w.Attempt = int(r.u16())
	w.Params.Genre = r.str8()

	if w.Params.Width < 1 || w.Params.Height < 1 {
		return nil, fmt.Errorf("%w: %dx%d grid", ErrBadRecord, w.Params.Width, w.Params.Height)
	}

	cells := w.Params.Width * w.Params.Height
	// One byte per tile must still fit in the record; checking before the
	// allocation keeps a corrupt header from driving a giant make.
	if cells > len(r.data)-r.off {
		return nil, fmt.Errorf("%w: %d cells in %d remaining bytes",
			ErrBadRecord, cells, len(r.data)-r.off)
	}
	w.Tiles = make([]terrain.TileType, cells)
	for i := 0; i < cells; i++ {
		w.Tiles[i] = terrain.TileType(r.byte())
	}

	nodeCount := int(r.u16())
	graph := plot.NewGraph()
	preds := make([][]int, nodeCount)
	for i := 0; i < nodeCount; i++ {
		n := plot.Node{
			Function: plot.Function(r.byte()),
			Requires: bitset.Mask(r.u16()),
			Provides: bitset.Mask(r.u16()),
			Anchor:   r.str8(),
		}
		n.Description = r.str8()
		graph.AddNode(n)

		pc := int(r.byte())
		preds[i] = make([]int, pc)
		for j := 0; j < pc; j++ {
			preds[i][j] = int(r.u16())
		}
	}
	for to, from := range preds {
		for _, f := range from {
			if f < 0 || f >= nodeCount {
				return nil, fmt.Errorf("%w: edge from node %d", ErrBadRecord, f)
			}
			graph.AddEdge(f, to)
		}
	}

	graph.Order = make([]int, nodeCount)
	for i := 0; i < nodeCount; i++ {
		id := int(r.u16())
		if id >= nodeCount {
			return nil, fmt.Errorf("%w: order entry %d", ErrBadRecord, id)
		}
		graph.Order[i] = id
	}
	w.Graph = graph

	bindCount := int(r.u16())
	w.Binding = make(binder.Binding, bindCount)
	for i := 0; i < bindCount; i++ {
		id := int(r.u16())
		x := int(r.u16())
		y := int(r.u16())
		w.Binding[id] = binder.Position{X: x, Y: y}
	}

	if r.failed {
		return nil, fmt.Errorf("%w: truncated", ErrBadRecord)
	}

	catalog, err := styledCatalog(w.Params.Genre)
	if err != nil {
		return nil, err
	}
	w.Catalog = catalog

	return w, nil
}

// styledCatalog rebuilds the catalog a decoded world was generated with.
// Weights only matter during collapse, so genres from a config file we
// no longer have fall back to standard; adjacency and passability are
// structural and survive.
func styledCatalog(genre string) (*terrain.Catalog, error) {
	if genre == "" {
		genre = "standard"
	}
	catalog := terrain.DefaultCatalog()
	if err := catalog.ApplyGenre(genre, nil); err != nil {
		if err := catalog.ApplyGenre("standard", nil); err != nil {
			return nil, err
		}
	}
	return catalog, nil
}

func writeU16(b *bytes.Buffer, v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	b.Write(buf[:])
}

func writeU64(b *bytes.Buffer, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b.Write(buf[:])
}

func writeStr8(b *bytes.Buffer, s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	b.WriteByte(byte(len(s)))
	b.WriteString(s)
}

// reader walks the record, latching the first truncation instead of
// erroring at every call site.
type reader struct {
	data   []byte
	off    int
	failed bool
}

func (r *reader) read(dst []byte) {
	if r.off+len(dst) > len(r.data) {
		r.failed = true
		return
	}
	copy(dst, r.data[r.off:])
	r.off += len(dst)
}

func (r *reader) byte() byte {
	var b [1]byte
	r.read(b[:])
	return b[0]
}

func (r *reader) u16() uint16 {
	var b [2]byte
	r.read(b[:])
	return binary.BigEndian.Uint16(b[:])
}

func (r *reader) u64() uint64 {
	var b [8]byte
	r.read(b[:])
	return binary.BigEndian.Uint64(b[:])
}

func (r *reader) str8() string {
	n := int(r.byte())
	b := make([]byte, n)
	r.read(b)
	if r.failed {
		return ""
	}
	return string(b)
}
