package surface

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// EdgeOptions bound the fixed-point edge search. The tolerance is
// tighter than the kernel's general on-surface epsilon because an edge
// point has to satisfy two surfaces at once.
type EdgeOptions struct {
	// MaxIterations is the hard cap; the search never loops unboundedly.
	MaxIterations int
	// Tolerance is how closely the two projections must agree.
	Tolerance float64
	// StallRatio is the minimum relative gap reduction per iteration;
	// anything less counts as a stall and fails the search.
	StallRatio float64
}

// DefaultEdgeOptions returns the standard search bounds.
func DefaultEdgeOptions() EdgeOptions {
	return EdgeOptions{
		MaxIterations: 100,
		Tolerance:     1e-7,
		StallRatio:    1e-3,
	}
}

// FindEdge refines seed toward a point lying on both a and b, their
// intersection curve. Each step projects the estimate onto both
// surfaces and moves it to the midpoint of the two projections, a fixed
// point of which is a common point of the pair. The search reports
// failure when the projection gap stops shrinking (parallel or disjoint
// surfaces) or the iteration cap is reached. Deterministic for a given
// seed and surface pair.
func FindEdge(seed v3.Vec, a, b *Surface, opts EdgeOptions) (v3.Vec, bool) {
	p := seed
	prev := math.Inf(1)
	for i := 0; i < opts.MaxIterations; i++ {
		pa := a.Project(p)
		pb := b.Project(p)
		if Undefined(pa) || Undefined(pb) {
			return v3.Vec{}, false
		}
		gap := pa.Sub(pb).Length()
		p = pa.Add(pb).MulScalar(0.5)
		if gap < opts.Tolerance {
			return p, true
		}
		if gap > prev*(1-opts.StallRatio) {
			return v3.Vec{}, false
		}
		prev = gap
	}
	return v3.Vec{}, false
}
