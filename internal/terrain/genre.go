package terrain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tileByName resolves tile names used in genre weight files.
var tileByName = func() map[string]TileType {
	m := make(map[string]TileType, NumTiles)
	for t := TileType(0); t < NumTiles; t++ {
		m[t.String()] = t
	}
	return m
}()

// GenreDefinition is one genre's tile weighting as parsed from YAML.
type GenreDefinition struct {
	Description string         `yaml:"description"`
	Weights     map[string]int `yaml:"weights"`
}

// GenresConfig represents the genres.yaml structure.
type GenresConfig struct {
	Genres map[string]GenreDefinition `yaml:"genres"`
}

// builtinGenres cover the common styles without any config file. A genre
// only reweights the collapse draw; adjacency is structural and never
// changes per genre.
var builtinGenres = map[string]map[string]int{
	"standard": {},
	"wilds": {
		"forest": 4, "mountain": 3, "swamp": 2, "village": 0, "tavern": 0,
	},
	"kingdom": {
		"road": 3, "village": 3, "castle": 2, "tavern": 2, "swamp": 0,
	},
	"wasteland": {
		"ruins": 4, "swamp": 3, "dungeon": 2, "village": 0, "castle": 0,
	},
}

// LoadGenres loads genre definitions from a YAML file.
func LoadGenres(path string) (*GenresConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read genres file: %w", err)
	}

	var config GenresConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse genres YAML: %w", err)
	}

	return &config, nil
}

// ApplyGenre reweights the catalog for the named genre. Built-in genres
// are used when config is nil or missing the name. A weight of 0 removes
// the tile from the random draw but keeps it legal for forced anchors.
func (c *Catalog) ApplyGenre(name string, config *GenresConfig) error {
	var weights map[string]int

	if config != nil {
		if def, ok := config.Genres[name]; ok {
			weights = def.Weights
		}
	}
	if weights == nil {
		w, ok := builtinGenres[name]
		if !ok {
			return fmt.Errorf("terrain: unknown genre %q", name)
		}
		weights = w
	}

	for tileName, weight := range weights {
		t, ok := tileByName[tileName]
		if !ok {
			return fmt.Errorf("terrain: genre %q names unknown tile %q", name, tileName)
		}
		if weight < 0 {
			return fmt.Errorf("terrain: genre %q has negative weight for %q", name, tileName)
		}
		c.Weights[t] = weight
	}
	return nil
}
