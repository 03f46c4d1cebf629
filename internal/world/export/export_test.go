package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/oisee/emergent-adventure/internal/binder"
	"github.com/oisee/emergent-adventure/internal/plot"
	"github.com/oisee/emergent-adventure/internal/terrain"
	"github.com/oisee/emergent-adventure/internal/world"
)

func testWorld() *world.WorldState {
	graph := plot.NewGraph()
	a := graph.AddNode(plot.Node{
		Function:    plot.Lack,
		Provides:    plot.P(plot.HeroExists),
		Description: "the realm is in peril",
		Anchor:      "village",
	})
	b := graph.AddNode(plot.Node{
		Function:    plot.Departure,
		Requires:    plot.P(plot.HeroExists),
		Provides:    plot.P(plot.HasAccess),
		Description: "the hero sets out",
		Anchor:      "road",
	})
	c := graph.AddNode(plot.Node{
		Function:    plot.Victory,
		Requires:    plot.P(plot.HasAccess),
		Provides:    plot.P(plot.QuestComplete),
		Description: "evil is banished",
		Anchor:      "castle",
	})
	graph.AddEdge(a, b)
	graph.AddEdge(b, c)
	graph.Order = []int{a, b, c}

	f := terrain.TileClearing
	return &world.WorldState{
		Params: world.Params{
			Seed: 42, Width: 4, Height: 2, Genre: "standard", Goal: plot.Victory,
		},
		Tiles: []terrain.TileType{
			terrain.TileVillage, terrain.TileRoad, f, f,
			f, f, f, terrain.TileCastle,
		},
		Graph: graph,
		Binding: binder.Binding{
			a: {X: 0, Y: 0},
			b: {X: 1, Y: 0},
			c: {X: 3, Y: 1},
		},
		Catalog: terrain.DefaultCatalog(),
		Attempt: 2,
	}
}

func TestBinaryRoundTrip(t *testing.T) {
	w := testWorld()

	decoded, err := Decode(Encode(w))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}

	if decoded.Params != w.Params {
		t.Errorf("params = %+v, want %+v", decoded.Params, w.Params)
	}
	if decoded.Attempt != w.Attempt {
		t.Errorf("attempt = %d, want %d", decoded.Attempt, w.Attempt)
	}
	for i, tile := range w.Tiles {
		if decoded.Tiles[i] != tile {
			t.Errorf("tile %d = %s, want %s", i, decoded.Tiles[i], tile)
		}
	}
	if len(decoded.Graph.Nodes) != len(w.Graph.Nodes) {
		t.Fatalf("got %d nodes, want %d", len(decoded.Graph.Nodes), len(w.Graph.Nodes))
	}
	for i, n := range w.Graph.Nodes {
		got := decoded.Graph.Nodes[i]
		if got.Function != n.Function || got.Requires != n.Requires ||
			got.Provides != n.Provides || got.Anchor != n.Anchor ||
			got.Description != n.Description {
			t.Errorf("node %d = %+v, want %+v", i, got, n)
		}
	}
	for i, id := range w.Graph.Order {
		if decoded.Graph.Order[i] != id {
			t.Errorf("order[%d] = %d, want %d", i, decoded.Graph.Order[i], id)
		}
	}
	// Edges survive: node 1 depends on node 0.
	preds := decoded.Graph.Predecessors(1)
	if len(preds) != 1 || preds[0] != 0 {
		t.Errorf("node 1 preds = %v, want [0]", preds)
	}
	for id, pos := range w.Binding {
		if decoded.Binding[id] != pos {
			t.Errorf("anchor %d = %v, want %v", id, decoded.Binding[id], pos)
		}
	}
	if decoded.Catalog == nil {
		t.Error("decoded world has no catalog")
	}
}

func TestEncodeIsByteStable(t *testing.T) {
	w := testWorld()
	if !bytes.Equal(Encode(w), Encode(w)) {
		t.Error("two encodes of the same world differ")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("not a world")); !errors.Is(err, ErrBadRecord) {
		t.Errorf("Decode(garbage) error = %v, want ErrBadRecord", err)
	}

	record := Encode(testWorld())
	if _, err := Decode(record[:len(record)/2]); !errors.Is(err, ErrBadRecord) {
		t.Errorf("Decode(truncated) error = %v, want ErrBadRecord", err)
	}
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	// A record whose header claims a grid far larger than the record
	// itself must fail before the tile array is allocated.
	record := Encode(testWorld())

	// Width and height live right after the magic, version, and seed.
	record[13], record[14] = 0x40, 0x00
	record[15], record[16] = 0x40, 0x00

	if _, err := Decode(record); !errors.Is(err, ErrBadRecord) {
		t.Errorf("Decode(oversized header) error = %v, want ErrBadRecord", err)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	w := testWorld()

	data, err := EncodeYAML(w)
	if err != nil {
		t.Fatalf("EncodeYAML() failed: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "seed: 42") {
		t.Errorf("yaml missing seed:\n%s", text)
	}
	if !strings.Contains(text, "VICTORY") {
		t.Errorf("yaml missing readable function name:\n%s", text)
	}

	decoded, err := DecodeYAML(data)
	if err != nil {
		t.Fatalf("DecodeYAML() failed: %v", err)
	}
	if decoded.Params != w.Params {
		t.Errorf("params = %+v, want %+v", decoded.Params, w.Params)
	}
	for i, tile := range w.Tiles {
		if decoded.Tiles[i] != tile {
			t.Errorf("tile %d = %s, want %s", i, decoded.Tiles[i], tile)
		}
	}
	for id, pos := range w.Binding {
		if decoded.Binding[id] != pos {
			t.Errorf("anchor %d = %v, want %v", id, decoded.Binding[id], pos)
		}
	}
	if decoded.RenderMap(false) != w.RenderMap(false) {
		t.Error("decoded map renders differently")
	}
}

func TestDecodeYAMLRejectsBadGrid(t *testing.T) {
	if _, err := DecodeYAML([]byte("width: 3\nheight: 2\ntiles: [1, 2]\n")); err == nil {
		t.Error("DecodeYAML accepted a tile count mismatch")
	}
}
