package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/oisee/emergent-adventure/internal/binder"
	"github.com/oisee/emergent-adventure/internal/plot"
	"github.com/oisee/emergent-adventure/internal/terrain"
	"github.com/oisee/emergent-adventure/internal/world"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "worlds.db")))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testWorld(seed int64) *world.WorldState {
	graph := plot.NewGraph()
	a := graph.AddNode(plot.Node{
		Function:    plot.Lack,
		Provides:    plot.P(plot.HeroExists),
		Description: "the village needs a hero",
		Anchor:      "village",
	})
	b := graph.AddNode(plot.Node{
		Function:    plot.Victory,
		Requires:    plot.P(plot.HeroExists),
		Provides:    plot.P(plot.QuestComplete),
		Description: "the villain falls",
		Anchor:      "castle",
	})
	graph.AddEdge(a, b)
	graph.Order = []int{a, b}

	f := terrain.TileClearing
	return &world.WorldState{
		Params: world.Params{
			Seed: seed, Width: 3, Height: 2, Genre: "standard", Goal: plot.Victory,
		},
		Tiles: []terrain.TileType{
			terrain.TileVillage, f, f,
			f, f, terrain.TileCastle,
		},
		Graph: graph,
		Binding: binder.Binding{
			a: {X: 0, Y: 0},
			b: {X: 2, Y: 1},
		},
		Catalog: terrain.DefaultCatalog(),
		Attempt: 1,
	}
}

func TestSaveAndLoadWorld(t *testing.T) {
	s := setupTestStore(t)
	w := testWorld(42)

	id, err := s.SaveWorld(w)
	if err != nil {
		t.Fatalf("SaveWorld() failed: %v", err)
	}
	if id < 1 {
		t.Fatalf("SaveWorld() id = %d, want >= 1", id)
	}

	loaded, err := s.LoadWorld(id)
	if err != nil {
		t.Fatalf("LoadWorld() failed: %v", err)
	}

	if loaded.Params != w.Params {
		t.Errorf("params = %+v, want %+v", loaded.Params, w.Params)
	}
	if len(loaded.Tiles) != len(w.Tiles) {
		t.Fatalf("got %d tiles, want %d", len(loaded.Tiles), len(w.Tiles))
	}
	for i, tile := range w.Tiles {
		if loaded.Tiles[i] != tile {
			t.Errorf("tile %d = %s, want %s", i, loaded.Tiles[i], tile)
		}
	}
	if len(loaded.Graph.Nodes) != 2 {
		t.Fatalf("got %d plot nodes, want 2", len(loaded.Graph.Nodes))
	}
	for i, n := range w.Graph.Nodes {
		got := loaded.Graph.Nodes[i]
		if got.Function != n.Function || got.Anchor != n.Anchor || got.Description != n.Description {
			t.Errorf("node %d = %+v, want %+v", i, got, n)
		}
	}
	for id, pos := range w.Binding {
		if loaded.Binding[id] != pos {
			t.Errorf("anchor %d = %v, want %v", id, loaded.Binding[id], pos)
		}
	}
}

func TestSaveWorldRejectsRepeatedAnchorRow(t *testing.T) {
	// A malformed world whose order lists a bound node twice hits the
	// UNIQUE(world_id, node_id) constraint; the save must surface that as
	// corruption, not a bare driver error.
	s := setupTestStore(t)

	w := testWorld(13)
	w.Graph.Order = []int{0, 1, 0}

	_, err := s.SaveWorld(w)
	if !errors.Is(err, ErrCorruptWorld) {
		t.Fatalf("SaveWorld() error = %v, want ErrCorruptWorld", err)
	}
}

func TestDefaultConfigPrefillsPostgresPool(t *testing.T) {
	cfg := DefaultConfig("worlds.db")

	if cfg.Driver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.Driver)
	}
	if cfg.Postgres.Port != 5432 {
		t.Errorf("postgres port = %d, want 5432", cfg.Postgres.Port)
	}
	if cfg.Postgres.MaxOpenConns != 25 || cfg.Postgres.MaxIdleConns != 5 {
		t.Errorf("pool = %d/%d conns, want 25/5",
			cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
	}
}

func TestLoadWorldNotFound(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.LoadWorld(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadWorld(999) error = %v, want ErrNotFound", err)
	}
}

func TestFindBySeed(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.SaveWorld(testWorld(7)); err != nil {
		t.Fatalf("SaveWorld() failed: %v", err)
	}
	if _, err := s.SaveWorld(testWorld(8)); err != nil {
		t.Fatalf("SaveWorld() failed: %v", err)
	}

	found, err := s.FindBySeed(7, 3, 2, "standard")
	if err != nil {
		t.Fatalf("FindBySeed() failed: %v", err)
	}
	if found.Params.Seed != 7 {
		t.Errorf("found seed = %d, want 7", found.Params.Seed)
	}

	if _, err := s.FindBySeed(7, 9, 9, "standard"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FindBySeed() with wrong dims error = %v, want ErrNotFound", err)
	}
}

func TestListWorlds(t *testing.T) {
	s := setupTestStore(t)

	for seed := int64(1); seed <= 3; seed++ {
		if _, err := s.SaveWorld(testWorld(seed)); err != nil {
			t.Fatalf("SaveWorld() failed: %v", err)
		}
	}

	summaries, err := s.ListWorlds(10)
	if err != nil {
		t.Fatalf("ListWorlds() failed: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("got %d summaries, want 3", len(summaries))
	}
	// Newest first.
	if summaries[0].Seed != 3 {
		t.Errorf("first summary seed = %d, want 3", summaries[0].Seed)
	}
	if summaries[0].NodeCount != 2 {
		t.Errorf("node count = %d, want 2", summaries[0].NodeCount)
	}
}

func TestDeleteWorld(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.SaveWorld(testWorld(5))
	if err != nil {
		t.Fatalf("SaveWorld() failed: %v", err)
	}

	if err := s.DeleteWorld(id); err != nil {
		t.Fatalf("DeleteWorld() failed: %v", err)
	}
	if _, err := s.LoadWorld(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadWorld() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteWorld(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteWorld() error = %v, want ErrNotFound", err)
	}
}
