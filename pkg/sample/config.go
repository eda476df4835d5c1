// Package sample discovers boundary points of a CSG solid by stochastic
// sampling: it draws candidate points, associates them with surfaces,
// refines edge candidates toward intersection curves, and keeps the
// points the classifier places on the composed solid's boundary.
package sample

import (
	"runtime"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/surface"
)

// Config collects every tunable of a sampling pass in one immutable
// value. It is threaded through all sampling and classification calls;
// nothing in the kernel reads ambient globals.
type Config struct {
	// Density is the number of volumetric cloud points per unit of
	// volume of the sampling region.
	Density float64

	// BoundsMin and BoundsMax delimit the axis-aligned region the cloud
	// is drawn from. It should enclose the model.
	BoundsMin, BoundsMax v3.Vec

	// SurfaceSamples is how many surface-local points are drawn per
	// surface, on top of the volumetric cloud.
	SurfaceSamples int

	// AcceptDistance associates a sampled point with a surface: the
	// point must project onto the surface within this distance.
	AcceptDistance float64

	// EdgeAcceptDistance is the looser threshold applied to the second
	// surface of an edge-candidate pair, so edge material near but not
	// on the second surface is still discovered.
	EdgeAcceptDistance float64

	// Epsilon is the shared on-surface tolerance used by every
	// classification in the pass.
	Epsilon float64

	// Edge bounds the fixed-point edge search.
	Edge surface.EdgeOptions

	// Workers caps the fan-out of the pass; values below 1 mean one
	// worker. A pass is deterministic for a fixed Config, Workers
	// included.
	Workers int

	// Seed feeds the per-worker random sources.
	Seed int64
}

// DefaultConfig returns the standard pass settings. Every field can be
// overridden by the caller; none is consulted anywhere else.
func DefaultConfig() Config {
	return Config{
		Density:            0.5,
		BoundsMin:          v3.Vec{X: -20, Y: -20, Z: -20},
		BoundsMax:          v3.Vec{X: 20, Y: 20, Z: 20},
		SurfaceSamples:     2000,
		AcceptDistance:     0.15,
		EdgeAcceptDistance: 0.45,
		Epsilon:            1e-4,
		Edge:               surface.DefaultEdgeOptions(),
		Workers:            runtime.NumCPU(),
		Seed:               1,
	}
}

// Volume returns the volume of the sampling region.
func (c Config) Volume() float64 {
	d := c.BoundsMax.Sub(c.BoundsMin)
	return d.X * d.Y * d.Z
}

// CloudSize returns the number of volumetric cloud points the pass
// draws: region volume times density.
func (c Config) CloudSize() int {
	n := int(c.Volume() * c.Density)
	if n < 0 {
		return 0
	}
	return n
}

// extent is the half-width used when sampling unbounded directions of a
// surface's parameterization (a plane's span, an unbounded cylinder's
// axis): half the largest dimension of the sampling region.
func (c Config) extent() float64 {
	d := c.BoundsMax.Sub(c.BoundsMin)
	m := d.X
	if d.Y > m {
		m = d.Y
	}
	if d.Z > m {
		m = d.Z
	}
	return m / 2
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}
