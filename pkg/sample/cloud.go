package sample

import (
	"math"
	"math/rand"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/surface"
)

// CloudPoints draws n points uniformly inside the config's sampling
// region.
func CloudPoints(cfg Config, rng *rand.Rand, n int) []v3.Vec {
	pts := make([]v3.Vec, n)
	d := cfg.BoundsMax.Sub(cfg.BoundsMin)
	for i := range pts {
		pts[i] = cfg.BoundsMin.Add(v3.Vec{
			X: rng.Float64() * d.X,
			Y: rng.Float64() * d.Y,
			Z: rng.Float64() * d.Z,
		})
	}
	return pts
}

// SurfacePoint draws one random point on s in its natural
// parameterization and maps it to world space. Unbounded directions
// span the config extent. A chamfer has no direct parameterization, so
// a random region point is projected through it instead; the result may
// be Degenerate and the caller's acceptance test discards it.
func SurfacePoint(s *surface.Surface, cfg Config, rng *rand.Rand) v3.Vec {
	ext := cfg.extent()
	switch s.Kind() {
	case surface.KindPlane:
		l := v3.Vec{
			X: (rng.Float64()*2 - 1) * ext,
			Y: (rng.Float64()*2 - 1) * ext,
		}
		return s.Frame().ToWorld(l)

	case surface.KindCylinder:
		theta := rng.Float64() * 2 * math.Pi
		half := ext
		if s.Height() > 0 {
			half = s.Height() / 2
		}
		l := v3.Vec{
			X: s.Radius() * math.Cos(theta),
			Y: s.Radius() * math.Sin(theta),
			Z: (rng.Float64()*2 - 1) * half,
		}
		return s.Frame().ToWorld(l)

	case surface.KindSphere:
		return s.Frame().ToWorld(unitSphere(rng).MulScalar(s.Radius()))

	case surface.KindChamfer:
		p := v3.Vec{
			X: (rng.Float64()*2 - 1) * ext,
			Y: (rng.Float64()*2 - 1) * ext,
			Z: (rng.Float64()*2 - 1) * ext,
		}
		return s.Project(p)
	}
	return surface.Degenerate
}

// unitSphere draws a uniform direction by rejection sampling the unit
// ball.
func unitSphere(rng *rand.Rand) v3.Vec {
	for {
		v := v3.Vec{
			X: rng.Float64()*2 - 1,
			Y: rng.Float64()*2 - 1,
			Z: rng.Float64()*2 - 1,
		}
		n := v.Length()
		if n > 0 && n <= 1 {
			return v.DivScalar(n)
		}
	}
}
