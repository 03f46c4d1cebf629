// worldgen generates a single world from a seed and prints its map and
// plot summary.
//
// Usage:
//
//	go run ./cmd/worldgen -seed 42 -width 12 -height 12 -genre wilds
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/oisee/emergent-adventure/internal/config"
	"github.com/oisee/emergent-adventure/internal/logger"
	"github.com/oisee/emergent-adventure/internal/plot"
	"github.com/oisee/emergent-adventure/internal/store"
	"github.com/oisee/emergent-adventure/internal/terrain"
	"github.com/oisee/emergent-adventure/internal/world"
	"github.com/oisee/emergent-adventure/internal/world/export"
)

func main() {
	seed := flag.Int64("seed", 42, "Generation seed")
	width := flag.Int("width", 0, "Grid width (0 uses the configured default)")
	height := flag.Int("height", 0, "Grid height (0 uses the configured default)")
	genre := flag.String("genre", "", "Genre weighting (standard, wilds, kingdom, wasteland)")
	goal := flag.String("goal", "VICTORY", "Story goal function")
	seedList := flag.String("seeds", "", "Comma-separated candidate seeds; the first success wins")
	configPath := flag.String("config", "worldgen.yaml", "Path to config file")
	yamlOut := flag.String("yaml", "", "Write the world as YAML to this file")
	archive := flag.Bool("archive", false, "Save the world to the archive database")
	legend := flag.Bool("legend", false, "Print the tile legend")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}

	gen, err := generatorFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building generator: %v\n", err)
		os.Exit(1)
	}

	goalFn, err := plot.ParseFunction(*goal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	params := world.Params{
		Seed:   *seed,
		Width:  pick(*width, cfg.Generation.Width),
		Height: pick(*height, cfg.Generation.Height),
		Genre:  pickStr(*genre, cfg.Generation.Genre),
		Goal:   goalFn,
	}

	var w *world.WorldState
	if *seedList != "" {
		seeds, err := parseSeeds(*seedList)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		w, err = gen.GenerateAny(params, seeds, 0)
		if err != nil {
			reportFailure(err)
		}
	} else {
		w, err = gen.Generate(params)
		if err != nil {
			reportFailure(err)
		}
	}

	fmt.Print(w.RenderMap(true))
	fmt.Println()
	fmt.Print(w.Summary())
	if *legend {
		fmt.Println()
		fmt.Print(world.Legend())
	}

	if *yamlOut != "" {
		data, err := export.EncodeYAML(w)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding YAML: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*yamlOut, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *yamlOut, err)
			os.Exit(1)
		}
		fmt.Printf("World written to %s\n", *yamlOut)
	}

	if *archive {
		st, err := store.Open(cfg.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening archive: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()

		id, err := st.SaveWorld(w)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error archiving world: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("World archived with id %d\n", id)
	}
}

// generatorFromConfig applies the configured budgets and genre catalog.
func generatorFromConfig(cfg *config.Config) (*world.Generator, error) {
	gen := world.NewGenerator()
	if cfg.Generation.MaxAttempts > 0 {
		gen.MaxAttempts = cfg.Generation.MaxAttempts
	}
	if cfg.Generation.MaxPlanNodes > 0 {
		gen.MaxPlanNodes = cfg.Generation.MaxPlanNodes
	}
	if cfg.Generation.MaxGridRestarts > 0 {
		gen.MaxGridRestarts = cfg.Generation.MaxGridRestarts
	}
	if cfg.Generation.GenresFile != "" {
		genres, err := terrain.LoadGenres(cfg.Generation.GenresFile)
		if err != nil {
			return nil, err
		}
		gen.Genres = genres
	}
	return gen, nil
}

func reportFailure(err error) {
	if errors.Is(err, world.ErrGenerationFailed) {
		fmt.Fprintf(os.Stderr, "No winnable world found: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "Generation error: %v\n", err)
	}
	os.Exit(1)
}

func parseSeeds(list string) ([]int64, error) {
	var seeds []int64
	for _, part := range strings.Split(list, ",") {
		s, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad seed %q", part)
		}
		seeds = append(seeds, s)
	}
	return seeds, nil
}

func pick(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}

func pickStr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
