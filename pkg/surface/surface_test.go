package surface

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/floats/scalar"
)

// vecNear fails the test unless got and want agree per component.
func vecNear(t *testing.T, got, want v3.Vec, tol float64) {
	t.Helper()
	if !scalar.EqualWithinAbs(got.X, want.X, tol) ||
		!scalar.EqualWithinAbs(got.Y, want.Y, tol) ||
		!scalar.EqualWithinAbs(got.Z, want.Z, tol) {
		t.Errorf("got (%g, %g, %g), want (%g, %g, %g) within %g",
			got.X, got.Y, got.Z, want.X, want.Y, want.Z, tol)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pos  v3.Vec
		rot  v3.Vec
	}{
		{"identity", v3.Vec{}, v3.Vec{}},
		{"translated", v3.Vec{X: 3, Y: -2, Z: 7}, v3.Vec{}},
		{"rotated", v3.Vec{}, v3.Vec{X: 30, Y: 45, Z: 60}},
		{"both", v3.Vec{X: -5, Y: 1, Z: 2}, v3.Vec{X: 90, Y: 0, Z: 180}},
	}
	p := v3.Vec{X: 1.25, Y: -4.5, Z: 9}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame(tt.pos, tt.rot)
			vecNear(t, f.ToWorld(f.ToLocal(p)), p, 1e-9)
			vecNear(t, f.ToLocal(f.ToWorld(p)), p, 1e-9)
		})
	}
}

func TestFrameDirections(t *testing.T) {
	// Directions ignore translation entirely.
	f := NewFrame(v3.Vec{X: 100, Y: 100, Z: 100}, v3.Vec{X: 0, Y: 90, Z: 0})
	got := f.DirToWorld(v3.Vec{Z: 1})
	vecNear(t, got, v3.Vec{X: 1}, 1e-9)
	vecNear(t, f.DirToLocal(got), v3.Vec{Z: 1}, 1e-9)
}

func TestPlaneProject(t *testing.T) {
	tests := []struct {
		name  string
		pos   v3.Vec
		rot   v3.Vec
		point v3.Vec
		want  v3.Vec
	}{
		{"xy plane", v3.Vec{}, v3.Vec{}, v3.Vec{X: 1, Y: 2, Z: 3}, v3.Vec{X: 1, Y: 2}},
		{"offset plane", v3.Vec{Z: 5}, v3.Vec{}, v3.Vec{X: 1, Y: 2, Z: 3}, v3.Vec{X: 1, Y: 2, Z: 5}},
		{"xz plane", v3.Vec{}, v3.Vec{X: 90}, v3.Vec{Y: 5}, v3.Vec{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewPlane("p", tt.pos, tt.rot)
			vecNear(t, s.Project(tt.point), tt.want, 1e-9)
		})
	}
}

func TestCylinderProject(t *testing.T) {
	t.Run("unbounded keeps axial coordinate", func(t *testing.T) {
		s := NewCylinder("c", 2, 0, v3.Vec{}, v3.Vec{})
		vecNear(t, s.Project(v3.Vec{X: 4, Z: 5}), v3.Vec{X: 2, Z: 5}, 1e-9)
	})
	t.Run("bounded clamps axial coordinate", func(t *testing.T) {
		s := NewCylinder("c", 2, 4, v3.Vec{}, v3.Vec{})
		vecNear(t, s.Project(v3.Vec{X: 4, Z: 5}), v3.Vec{X: 2, Z: 2}, 1e-9)
	})
	t.Run("inside projects outward", func(t *testing.T) {
		s := NewCylinder("c", 2, 0, v3.Vec{}, v3.Vec{})
		vecNear(t, s.Project(v3.Vec{X: 0.5, Z: 1}), v3.Vec{X: 2, Z: 1}, 1e-9)
	})
	t.Run("axis point lands at radius", func(t *testing.T) {
		s := NewCylinder("c", 2, 0, v3.Vec{}, v3.Vec{})
		got := s.Project(v3.Vec{Z: 1})
		r := math.Hypot(got.X, got.Y)
		if !scalar.EqualWithinAbs(r, 2, 1e-9) {
			t.Errorf("projected axis point at radius %g, want 2", r)
		}
	})
}

func TestSphereProject(t *testing.T) {
	s := NewSphere("s", 8, v3.Vec{X: 1})
	tests := []struct {
		name  string
		point v3.Vec
		want  v3.Vec
	}{
		{"outside", v3.Vec{X: 17}, v3.Vec{X: 9}},
		{"inside", v3.Vec{X: 1, Y: 0.5}, v3.Vec{X: 1, Y: 8}},
		{"center picks an arbitrary direction", v3.Vec{X: 1}, v3.Vec{X: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vecNear(t, s.Project(tt.point), tt.want, 1e-9)
		})
	}
}

func TestNormals(t *testing.T) {
	tests := []struct {
		name  string
		s     *Surface
		point v3.Vec
		want  v3.Vec
	}{
		{"plane", NewPlane("p", v3.Vec{}, v3.Vec{}), v3.Vec{X: 3, Y: 4}, v3.Vec{Z: 1}},
		{"rotated plane", NewPlane("p", v3.Vec{}, v3.Vec{Y: 90}), v3.Vec{}, v3.Vec{X: 1}},
		{"cylinder", NewCylinder("c", 2, 0, v3.Vec{}, v3.Vec{}), v3.Vec{X: 2, Z: 5}, v3.Vec{X: 1}},
		{"sphere", NewSphere("s", 8, v3.Vec{}), v3.Vec{Y: 8}, v3.Vec{Y: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.s.Normal(tt.point)
			vecNear(t, n, tt.want, 1e-9)
			if !scalar.EqualWithinAbs(n.Length(), 1, 1e-9) {
				t.Errorf("normal length %g, want 1", n.Length())
			}
		})
	}
}

func TestChamferProject(t *testing.T) {
	// Two planes meeting along the y axis: normals +z and +x.
	a := NewPlane("a", v3.Vec{}, v3.Vec{})
	b := NewPlane("b", v3.Vec{}, v3.Vec{Y: 90})
	const length = 2.0
	ch := NewChamfer("ch", a, b, length, DefaultEdgeOptions())

	// The blended normal is (nA - nB) normalized.
	n := v3.Vec{X: -1, Z: 1}.Normalize()

	p := v3.Vec{X: 1.5, Y: 3, Z: 0.5}
	q := ch.Project(p)
	if Undefined(q) {
		t.Fatal("projection is undefined for intersecting parents")
	}

	// Edge points sit on the y axis where dot(e, n) = 0, so the chamfer
	// plane satisfies dot(q, n) = length.
	if got := q.Dot(n); !scalar.EqualWithinAbs(got, length, 1e-5) {
		t.Errorf("dot(projected, blend normal) = %g, want %g", got, length)
	}
	// The projection moved p along the blend normal only.
	d := q.Sub(p)
	if cross := d.Cross(n).Length(); !scalar.EqualWithinAbs(cross, 0, 1e-6) {
		t.Errorf("projection offset is not parallel to the blend normal (|cross| = %g)", cross)
	}

	vecNear(t, ch.Normal(p), n, 1e-9)
}

func TestChamferDegenerate(t *testing.T) {
	// Parallel parents have no edge; the projection must be the
	// sentinel, not a crash.
	a := NewPlane("a", v3.Vec{}, v3.Vec{})
	b := NewPlane("b", v3.Vec{Z: 5}, v3.Vec{})
	ch := NewChamfer("ch", a, b, 1, DefaultEdgeOptions())

	q := ch.Project(v3.Vec{X: 1, Y: 2, Z: 3})
	if !Undefined(q) {
		t.Errorf("expected Degenerate projection, got (%g, %g, %g)", q.X, q.Y, q.Z)
	}
	if Undefined(v3.Vec{X: 1}) {
		t.Error("finite point reported as Undefined")
	}
}

func TestSurfaceAccessors(t *testing.T) {
	a := NewPlane("a", v3.Vec{}, v3.Vec{})
	b := NewSphere("b", 8, v3.Vec{})
	ch := NewChamfer("ch", a, b, 1.5, DefaultEdgeOptions())

	if got := ch.Kind(); got != KindChamfer {
		t.Errorf("Kind() = %v, want %v", got, KindChamfer)
	}
	if got := ch.BlendLength(); got != 1.5 {
		t.Errorf("BlendLength() = %g, want 1.5", got)
	}
	pa, pb := ch.Parents()
	if pa != a || pb != b {
		t.Error("Parents() did not return the construction surfaces")
	}
	if got := b.Radius(); got != 8 {
		t.Errorf("Radius() = %g, want 8", got)
	}
}
