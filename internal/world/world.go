// Package world drives the generation pipeline: plan the plot backward
// from the goal, collapse the terrain with the plot's anchors forced in,
// bind anchors to cells, and verify the result. Failed attempts are
// discarded whole and retried with a derived sub-seed.
package world

import (
	"errors"
	"fmt"

	"github.com/oisee/emergent-adventure/internal/binder"
	"github.com/oisee/emergent-adventure/internal/bitset"
	"github.com/oisee/emergent-adventure/internal/logger"
	"github.com/oisee/emergent-adventure/internal/plot"
	"github.com/oisee/emergent-adventure/internal/terrain"
	"github.com/oisee/emergent-adventure/internal/wfc"
)

// ErrGenerationFailed is the terminal error after the attempt cap is
// exhausted on transient failures.
var ErrGenerationFailed = errors.New("world: generation failed")

// GenerationError wraps the last transient failure once every attempt is
// spent.
type GenerationError struct {
	Attempts int
	Last     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("world: generation failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *GenerationError) Unwrap() error {
	return ErrGenerationFailed
}

// Params selects what to generate. Zero-value fields fall back to the
// canonical defaults: an 8x8 standard-genre world with a VICTORY goal.
// A zero Goal always means VICTORY; LACK only opens a story and is never
// a reachable goal through this API.
type Params struct {
	Seed   int64
	Width  int
	Height int
	Genre  string
	Goal   plot.Function
}

func (p Params) withDefaults() Params {
	if p.Width == 0 {
		p.Width = 8
	}
	if p.Height == 0 {
		p.Height = 8
	}
	if p.Genre == "" {
		p.Genre = "standard"
	}
	if p.Goal == 0 {
		p.Goal = plot.Victory
	}
	return p
}

// WorldState is the finalized generation artifact. Consumers treat it as
// read-only; renderers and the runtime never mutate it.
type WorldState struct {
	Params Params

	Tiles   []terrain.TileType
	Graph   *plot.Graph
	Binding binder.Binding

	// Catalog is the genre-styled catalog the world was collapsed with.
	Catalog *terrain.Catalog

	// Attempt is the 1-based attempt number that succeeded.
	Attempt int
}

// TileAt returns the collapsed tile at (x, y).
func (w *WorldState) TileAt(x, y int) terrain.TileType {
	return w.Tiles[y*w.Params.Width+x]
}

// Generator owns the catalogs and budgets shared across attempts. It
// keeps no per-attempt state: concurrent Generate calls are independent.
type Generator struct {
	Catalog   *terrain.Catalog
	Templates *plot.Templates
	Genres    *terrain.GenresConfig

	// Initial is the predicate mask true before any plot node occurs.
	Initial bitset.Mask

	MaxAttempts     int
	MaxPlanNodes    int
	MaxGridRestarts int

	// Forced placements supplied by the caller, validated once and
	// honored on every attempt.
	Forced []wfc.Forced

	// OnAttempt, when set, observes each failed attempt. The generation
	// service uses it to stream progress.
	OnAttempt func(attempt int, err error)
}

// NewGenerator returns a generator with the baseline catalogs and
// budgets.
func NewGenerator() *Generator {
	return &Generator{
		Catalog:         terrain.DefaultCatalog(),
		Templates:       plot.DefaultTemplates(),
		MaxAttempts:     20,
		MaxPlanNodes:    24,
		MaxGridRestarts: 10,
	}
}

// Generate runs the full pipeline for the given parameters. Transient
// failures (grid contradictions, bind repairs) consume attempts;
// configuration errors (unsatisfiable goal, over-cap plans, bad caller
// forced placements, unknown genre) surface immediately.
func (g *Generator) Generate(p Params) (*WorldState, error) {
	p = p.withDefaults()
	if p.Width < 1 || p.Height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", wfc.ErrInvalidSize, p.Width, p.Height)
	}

	catalog, err := g.styledCatalog(p.Genre)
	if err != nil {
		return nil, err
	}

	if len(g.Forced) > 0 {
		// Caller mistakes must not burn attempts.
		probe := wfc.NewSolver(p.Width, p.Height, catalog, p.Seed)
		if err := probe.ValidateForced(g.Forced); err != nil {
			return nil, err
		}
	}

	var lastErr error
	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		// The PoC derivation: each attempt owns a disjoint seed block.
		sub := p.Seed + int64(attempt)*1000

		state, err := g.attempt(p, catalog, sub)
		if err == nil {
			state.Attempt = attempt + 1
			logger.Info("world generated",
				"seed", p.Seed, "attempt", attempt+1,
				"nodes", len(state.Graph.Nodes), "anchors", len(state.Binding))
			return state, nil
		}

		if isFatal(err) {
			return nil, err
		}
		logger.Debug("generation attempt failed",
			"seed", p.Seed, "attempt", attempt+1, "error", err)
		if g.OnAttempt != nil {
			g.OnAttempt(attempt+1, err)
		}
		lastErr = err
	}

	return nil, &GenerationError{Attempts: g.MaxAttempts, Last: lastErr}
}

// attempt runs one plan-collapse-bind cycle with seeds derived from sub.
func (g *Generator) attempt(p Params, catalog *terrain.Catalog, sub int64) (*WorldState, error) {
	planner := plot.NewPlanner(g.Templates)
	planner.MaxNodes = g.MaxPlanNodes

	graph, err := planner.Plan(p.Goal, g.Initial, sub)
	if err != nil {
		return nil, err
	}

	forced, err := g.anchorPlacements(p, catalog, graph, sub+1)
	if err != nil {
		return nil, err
	}
	forced = append(forced, g.Forced...)

	solver := wfc.NewSolver(p.Width, p.Height, catalog, sub+2)
	solver.MaxRestarts = g.MaxGridRestarts
	tiles, err := solver.Solve(forced)
	if err != nil {
		return nil, err
	}

	bnd := binder.New(p.Width, p.Height, tiles, catalog)
	binding, err := bnd.Bind(graph, sub+3)
	if err != nil {
		return nil, err
	}

	return &WorldState{
		Params:  p,
		Tiles:   tiles,
		Graph:   graph,
		Binding: binding,
		Catalog: catalog,
	}, nil
}

// styledCatalog clones the base catalog and applies the genre weighting.
func (g *Generator) styledCatalog(genre string) (*terrain.Catalog, error) {
	catalog := terrain.DefaultCatalog()
	if g.Catalog != nil {
		catalog = g.Catalog.Clone()
	}
	if err := catalog.ApplyGenre(genre, g.Genres); err != nil {
		return nil, err
	}
	return catalog, nil
}

// isFatal reports whether an error is a configuration problem that a
// retry cannot fix.
func isFatal(err error) bool {
	return errors.Is(err, plot.ErrUnsatisfiable) ||
		errors.Is(err, plot.ErrTooComplex) ||
		errors.Is(err, wfc.ErrInvalidSize)
}
