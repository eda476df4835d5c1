// Package surface implements the implicit-surface primitives of the
// sampling kernel. A surface answers two queries in world space: project
// a point onto itself, and report the outward unit normal at a point
// already lying on it. Both are pure functions of the surface's fixed
// parameters, so surfaces are safe to share across goroutines.
package surface

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Kind enumerates the closed set of surface kinds.
type Kind int

const (
	KindPlane    Kind = iota // the local z=0 plane, normal +z
	KindCylinder             // radius around the local z axis
	KindSphere               // radius around the local origin
	KindChamfer              // blend plane derived from two parent surfaces
)

func (k Kind) String() string {
	switch k {
	case KindPlane:
		return "plane"
	case KindCylinder:
		return "cylinder"
	case KindSphere:
		return "sphere"
	case KindChamfer:
		return "chamfer"
	default:
		return "unknown"
	}
}

// Frame is a rigid local/world transform: translation plus rotation at
// uniform unit scale, with cached inverses. The rotation-only matrices
// are kept separately so directions can be mapped without translation.
type Frame struct {
	toWorld sdf.M44
	toLocal sdf.M44
	rot     sdf.M44
	invRot  sdf.M44
}

// NewFrame builds a frame from a world position and XYZ Euler angles in
// degrees, applied in X, Y, Z order.
func NewFrame(pos, rotDeg v3.Vec) Frame {
	rx := rotDeg.X * math.Pi / 180.0
	ry := rotDeg.Y * math.Pi / 180.0
	rz := rotDeg.Z * math.Pi / 180.0

	rot := sdf.RotateZ(rz).Mul(sdf.RotateY(ry)).Mul(sdf.RotateX(rx))
	m := sdf.Translate3d(pos).Mul(rot)
	return Frame{
		toWorld: m,
		toLocal: m.Inverse(),
		rot:     rot,
		invRot:  rot.Inverse(),
	}
}

// ToWorld maps a local-space point to world space.
func (f Frame) ToWorld(p v3.Vec) v3.Vec { return f.toWorld.MulPosition(p) }

// ToLocal maps a world-space point to local space.
func (f Frame) ToLocal(p v3.Vec) v3.Vec { return f.toLocal.MulPosition(p) }

// DirToWorld rotates a local-space direction into world space.
func (f Frame) DirToWorld(d v3.Vec) v3.Vec { return f.rot.MulPosition(d) }

// DirToLocal rotates a world-space direction into local space.
func (f Frame) DirToLocal(d v3.Vec) v3.Vec { return f.invRot.MulPosition(d) }

// Degenerate is the sentinel returned when a composite projection is
// undefined at the query point. Every finite distance test against it
// fails, so acceptance filters discard such points without special
// casing.
var Degenerate = v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}

// Undefined reports whether p is the Degenerate sentinel.
func Undefined(p v3.Vec) bool { return math.IsInf(p.X, 1) }

// Surface is one implicit surface. Use the New* constructors; a Surface
// is immutable once the model referencing it has been built, and may be
// shared by any number of shapes. Pointer identity is what ties a
// sampled point back to the surface that produced it, so surfaces are
// never copied.
type Surface struct {
	// ID is an opaque display tag; the kernel only ever compares
	// surface pointers, never IDs.
	ID string

	// Color is a viewer hint such as "#4A90D9". Empty means the app
	// layer assigns a palette color.
	Color string

	kind  Kind
	frame Frame

	radius float64     // sphere, cylinder
	height float64     // cylinder; 0 means unbounded along the axis
	length float64     // chamfer blend length
	a, b   *Surface    // chamfer parents
	edge   EdgeOptions // chamfer edge search settings
}

// NewPlane returns the plane through pos whose normal is the local +z
// axis rotated by rotDeg.
func NewPlane(id string, pos, rotDeg v3.Vec) *Surface {
	return &Surface{ID: id, kind: KindPlane, frame: NewFrame(pos, rotDeg)}
}

// NewCylinder returns a cylinder of the given radius around the local z
// axis. A positive height bounds the axial coordinate to [-height/2,
// height/2]; zero leaves it unbounded.
func NewCylinder(id string, radius, height float64, pos, rotDeg v3.Vec) *Surface {
	return &Surface{
		ID:     id,
		kind:   KindCylinder,
		frame:  NewFrame(pos, rotDeg),
		radius: radius,
		height: height,
	}
}

// NewSphere returns a sphere of the given radius centered at pos.
func NewSphere(id string, radius float64, pos v3.Vec) *Surface {
	return &Surface{
		ID:     id,
		kind:   KindSphere,
		frame:  NewFrame(pos, v3.Vec{}),
		radius: radius,
	}
}

// NewChamfer returns the blend surface between two existing surfaces:
// the plane at distance length along the blended normal from their
// intersection curve. The edge options bound the internal edge search
// and are fixed at construction like every other parameter.
func NewChamfer(id string, a, b *Surface, length float64, edge EdgeOptions) *Surface {
	return &Surface{
		ID:     id,
		kind:   KindChamfer,
		frame:  NewFrame(v3.Vec{}, v3.Vec{}),
		length: length,
		a:      a,
		b:      b,
		edge:   edge,
	}
}

// Kind returns the surface kind.
func (s *Surface) Kind() Kind { return s.kind }

// Frame returns the surface's rigid transform.
func (s *Surface) Frame() Frame { return s.frame }

// Radius returns the sphere or cylinder radius, 0 for other kinds.
func (s *Surface) Radius() float64 { return s.radius }

// Height returns the cylinder height, 0 when unbounded or not a cylinder.
func (s *Surface) Height() float64 { return s.height }

// BlendLength returns the chamfer blend length, 0 for other kinds.
func (s *Surface) BlendLength() float64 { return s.length }

// Parents returns the chamfer parent surfaces, nil for other kinds.
func (s *Surface) Parents() (*Surface, *Surface) { return s.a, s.b }

// Project returns a point lying exactly on the surface. The projection
// is closed-form per kind and not necessarily the Euclidean-closest
// point for the chamfer composite. A chamfer whose internal edge search
// does not converge returns Degenerate: the surface is undefined at
// that query point and callers must discard the result.
func (s *Surface) Project(p v3.Vec) v3.Vec {
	switch s.kind {
	case KindPlane:
		l := s.frame.ToLocal(p)
		l.Z = 0
		return s.frame.ToWorld(l)

	case KindCylinder:
		l := s.frame.ToLocal(p)
		r := math.Hypot(l.X, l.Y)
		if r == 0 {
			// On the axis every radial direction is equally close.
			l.X, l.Y = s.radius, 0
		} else {
			k := s.radius / r
			l.X *= k
			l.Y *= k
		}
		if s.height > 0 {
			l.Z = clamp(l.Z, -s.height/2, s.height/2)
		}
		return s.frame.ToWorld(l)

	case KindSphere:
		l := s.frame.ToLocal(p)
		n := l.Length()
		if n == 0 {
			l = v3.Vec{X: s.radius}
		} else {
			l = l.MulScalar(s.radius / n)
		}
		return s.frame.ToWorld(l)

	case KindChamfer:
		e, ok := FindEdge(p, s.a, s.b, s.edge)
		if !ok {
			return Degenerate
		}
		n := blendNormal(s.a, s.b, e)
		c := e.Add(n.MulScalar(s.length))
		return p.Sub(n.MulScalar(p.Sub(c).Dot(n)))
	}
	return Degenerate
}

// Normal returns the outward unit normal at a point assumed to already
// lie on the surface.
func (s *Surface) Normal(p v3.Vec) v3.Vec {
	switch s.kind {
	case KindPlane:
		return s.frame.DirToWorld(v3.Vec{Z: 1})

	case KindCylinder:
		l := s.frame.ToLocal(p)
		l.Z = 0
		if l.Length() == 0 {
			l = v3.Vec{X: 1}
		}
		return s.frame.DirToWorld(l.Normalize())

	case KindSphere:
		l := s.frame.ToLocal(p)
		if l.Length() == 0 {
			l = v3.Vec{X: 1}
		}
		return s.frame.DirToWorld(l.Normalize())

	case KindChamfer:
		return blendNormal(s.a, s.b, p)
	}
	return v3.Vec{Z: 1}
}

// blendNormal is the normalized difference of the parent normals at p.
// Coincident parent normals leave no blend direction; fall back to the
// first parent so the result stays a unit vector.
func blendNormal(a, b *Surface, p v3.Vec) v3.Vec {
	d := a.Normal(p).Sub(b.Normal(p))
	if d.Length() == 0 {
		return a.Normal(p)
	}
	return d.Normalize()
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
