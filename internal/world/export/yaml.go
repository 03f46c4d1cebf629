package export

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/oisee/emergent-adventure/internal/binder"
	"github.com/oisee/emergent-adventure/internal/bitset"
	"github.com/oisee/emergent-adventure/internal/plot"
	"github.com/oisee/emergent-adventure/internal/terrain"
	"github.com/oisee/emergent-adventure/internal/world"
)

// yamlWorld is the tooling-facing document. Numeric fields carry the
// lossless state; the map and name fields are redundant human-readable
// views.
type yamlWorld struct {
	Seed    int64    `yaml:"seed"`
	Width   int      `yaml:"width"`
	Height  int      `yaml:"height"`
	Genre   string   `yaml:"genre"`
	Goal    int      `yaml:"goal"`
	Attempt int      `yaml:"attempt"`
	Map     []string `yaml:"map"`
	Tiles   []int    `yaml:"tiles"`

	Nodes []yamlNode `yaml:"nodes"`
	Order []int      `yaml:"order"`
}

type yamlNode struct {
	ID          int    `yaml:"id"`
	Function    int    `yaml:"function"`
	Name        string `yaml:"name"`
	Requires    int    `yaml:"requires"`
	Provides    int    `yaml:"provides"`
	Anchor      string `yaml:"anchor,omitempty"`
	Description string `yaml:"description,omitempty"`
	After       []int  `yaml:"after,omitempty"`
	X           *int   `yaml:"x,omitempty"`
	Y           *int   `yaml:"y,omitempty"`
}

// EncodeYAML renders a world as a YAML document.
func EncodeYAML(w *world.WorldState) ([]byte, error) {
	doc := yamlWorld{
		Seed:    w.Params.Seed,
		Width:   w.Params.Width,
		Height:  w.Params.Height,
		Genre:   w.Params.Genre,
		Goal:    int(w.Params.Goal),
		Attempt: w.Attempt,
		Order:   w.Graph.Order,
	}

	for y := 0; y < w.Params.Height; y++ {
		row := make([]rune, w.Params.Width)
		for x := 0; x < w.Params.Width; x++ {
			row[x] = w.TileAt(x, y).Rune()
		}
		doc.Map = append(doc.Map, string(row))
	}
	doc.Tiles = make([]int, len(w.Tiles))
	for i, t := range w.Tiles {
		doc.Tiles[i] = int(t)
	}

	for _, n := range w.Graph.Nodes {
		yn := yamlNode{
			ID:          n.ID,
			Function:    int(n.Function),
			Name:        n.Function.String(),
			Requires:    int(n.Requires),
			Provides:    int(n.Provides),
			Anchor:      n.Anchor,
			Description: n.Description,
		}
		yn.After = append(yn.After, w.Graph.Predecessors(n.ID)...)
		sort.Ints(yn.After)
		if pos, ok := w.Binding[n.ID]; ok {
			x, y := pos.X, pos.Y
			yn.X, yn.Y = &x, &y
		}
		doc.Nodes = append(doc.Nodes, yn)
	}

	return yaml.Marshal(doc)
}

// DecodeYAML parses a YAML document back into a world.
func DecodeYAML(data []byte) (*world.WorldState, error) {
	var doc yamlWorld
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("export: parse yaml world: %w", err)
	}
	if doc.Width < 1 || doc.Height < 1 {
		return nil, fmt.Errorf("export: yaml world has %dx%d grid", doc.Width, doc.Height)
	}
	if len(doc.Tiles) != doc.Width*doc.Height {
		return nil, fmt.Errorf("export: yaml world has %d tiles for a %dx%d grid",
			len(doc.Tiles), doc.Width, doc.Height)
	}

	w := &world.WorldState{
		Params: world.Params{
			Seed:   doc.Seed,
			Width:  doc.Width,
			Height: doc.Height,
			Genre:  doc.Genre,
			Goal:   plot.Function(doc.Goal),
		},
		Attempt: doc.Attempt,
		Binding: make(binder.Binding),
	}

	w.Tiles = make([]terrain.TileType, len(doc.Tiles))
	for i, t := range doc.Tiles {
		w.Tiles[i] = terrain.TileType(t)
	}

	graph := plot.NewGraph()
	for i, n := range doc.Nodes {
		if n.ID != i {
			return nil, fmt.Errorf("export: yaml node %d out of sequence", n.ID)
		}
		graph.AddNode(plot.Node{
			Function:    plot.Function(n.Function),
			Requires:    bitset.Mask(n.Requires),
			Provides:    bitset.Mask(n.Provides),
			Anchor:      n.Anchor,
			Description: n.Description,
		})
	}
	for _, n := range doc.Nodes {
		for _, from := range n.After {
			if from < 0 || from >= len(doc.Nodes) {
				return nil, fmt.Errorf("export: yaml edge from node %d", from)
			}
			graph.AddEdge(from, n.ID)
		}
		if n.X != nil && n.Y != nil {
			w.Binding[n.ID] = binder.Position{X: *n.X, Y: *n.Y}
		}
	}
	graph.Order = doc.Order
	w.Graph = graph

	catalog, err := styledCatalog(doc.Genre)
	if err != nil {
		return nil, err
	}
	w.Catalog = catalog

	return w, nil
}
