package world

import (
	"sync"
)

// GenerateAny tries every candidate seed concurrently and returns the
// success with the lowest index, so the result is independent of
// goroutine scheduling. Each candidate runs a full attempt loop with its
// own streams; the generator itself holds no per-call state.
func (g *Generator) GenerateAny(p Params, seeds []int64, workers int) (*WorldState, error) {
	if len(seeds) == 0 {
		return g.Generate(p)
	}
	if workers < 1 {
		workers = len(seeds)
	}

	states := make([]*WorldState, len(seeds))
	errs := make([]error, len(seeds))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, seed := range seeds {
		wg.Add(1)
		go func(i int, seed int64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cp := p
			cp.Seed = seed
			states[i], errs[i] = g.Generate(cp)
		}(i, seed)
	}
	wg.Wait()

	for i, state := range states {
		if errs[i] == nil {
			return state, nil
		}
	}
	return nil, errs[len(errs)-1]
}
