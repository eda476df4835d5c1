package sample

import (
	"math/rand"
	"sync"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/csg"
	"github.com/chazu/isoform/pkg/surface"
)

// Result holds the surviving points of one sampling pass, bucketed per
// surface in the order the surfaces slice was given to Scan. Boundary
// points lie exactly on their surface and classified On against the
// tree; edge points are refined intersection points seeded from the
// bucket's surface.
type Result struct {
	Boundary [][]v3.Vec
	Edges    [][]v3.Vec
}

// Scan runs one full sampling pass: a volumetric cloud over the config
// region plus surface-local samples for every surface, each candidate
// classified against the tree and kept only when it lands on the
// boundary of the composed solid. The tree must be non-nil.
//
// Every candidate is independent of every other, so the pass fans out
// over cfg.Workers goroutines, each drawing from its own seeded random
// source and appending to private buckets merged at the end. Nothing is
// locked during the pass; surfaces and the tree are read-only
// throughout.
func Scan(surfaces []*surface.Surface, tree *csg.Node, cfg Config) Result {
	workers := cfg.workers()
	parts := make([]bucketSet, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			p := pass{surfaces: surfaces, tree: tree, cfg: cfg}
			parts[w] = p.run(w, workers)
		}(w)
	}
	wg.Wait()

	merged := newBucketSet(len(surfaces))
	for _, part := range parts {
		for i := range merged.boundary {
			merged.boundary[i] = append(merged.boundary[i], part.boundary[i]...)
			merged.edges[i] = append(merged.edges[i], part.edges[i]...)
		}
	}
	return Result{Boundary: merged.boundary, Edges: merged.edges}
}

// bucketSet is one worker's private per-surface accumulation.
type bucketSet struct {
	boundary [][]v3.Vec
	edges    [][]v3.Vec
}

func newBucketSet(n int) bucketSet {
	return bucketSet{
		boundary: make([][]v3.Vec, n),
		edges:    make([][]v3.Vec, n),
	}
}

// pass is the read-only state shared by one worker's sampling work.
type pass struct {
	surfaces []*surface.Surface
	tree     *csg.Node
	cfg      Config
}

// run performs worker w's share of the pass: a slice of the volumetric
// cloud and a slice of each surface's local samples. Seeding the worker
// source from the config seed and the worker index keeps the whole pass
// reproducible for a fixed Config.
func (p pass) run(w, workers int) bucketSet {
	rng := rand.New(rand.NewSource(p.cfg.Seed + int64(w)*7919))
	buckets := newBucketSet(len(p.surfaces))

	for _, pt := range CloudPoints(p.cfg, rng, share(p.cfg.CloudSize(), w, workers)) {
		p.consider(pt, -1, &buckets)
	}

	perSurface := share(p.cfg.SurfaceSamples, w, workers)
	for i, s := range p.surfaces {
		for k := 0; k < perSurface; k++ {
			pt := SurfacePoint(s, p.cfg, rng)
			if surface.Undefined(pt) {
				continue
			}
			p.consider(pt, i, &buckets)
		}
	}
	return buckets
}

// consider associates one candidate point with surfaces and files the
// survivors. origin >= 0 pins the candidate to that surface (it was
// generated on it); -1 means a cloud point, associated with every
// surface within the acceptance distance. A point may be accepted by
// several surfaces; that is what makes edges discoverable.
func (p pass) consider(pt v3.Vec, origin int, buckets *bucketSet) {
	cfg := p.cfg

	// Project once per surface; a chamfer projection runs a full edge
	// search, so these are the expensive calls of the pass. An undefined
	// projection has infinite distance and fails every threshold below.
	proj := make([]v3.Vec, len(p.surfaces))
	dist := make([]float64, len(p.surfaces))
	for i, s := range p.surfaces {
		proj[i] = s.Project(pt)
		dist[i] = pt.Sub(proj[i]).Length()
	}

	for i, s := range p.surfaces {
		if origin >= 0 && i != origin {
			continue
		}
		if dist[i] > cfg.AcceptDistance {
			continue
		}

		q := proj[i]
		if csg.Classify(q, s, p.tree, cfg.Epsilon) == csg.On {
			buckets.boundary[i] = append(buckets.boundary[i], q)
		}

		// A point near this surface and loosely near another seeds an
		// edge search between the pair.
		for j, other := range p.surfaces {
			if j == i || dist[j] > cfg.EdgeAcceptDistance {
				continue
			}
			e, ok := surface.FindEdge(pt, s, other, cfg.Edge)
			if !ok {
				continue
			}
			if csg.Classify(e, s, p.tree, cfg.Epsilon) == csg.On {
				buckets.edges[i] = append(buckets.edges[i], e)
			}
		}
	}
}

// share splits n across workers, giving the remainder to worker 0.
func share(n, w, workers int) int {
	s := n / workers
	if w == 0 {
		s += n % workers
	}
	return s
}
