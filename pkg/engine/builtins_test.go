package engine

import (
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/csg"
	"github.com/chazu/isoform/pkg/model"
	"github.com/chazu/isoform/pkg/surface"
)

func TestPreprocessSource(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"keyword", `(sphere :radius 8)`, `(sphere "__kw_radius" 8)`},
		{"keyword with digits", `(edges :stall2 1)`, `(edges "__kw_stall2" 1)`},
		{"semicolon comment", "(density 1) ; half\n(seed 2)", "(density 1) // half\n(seed 2)"},
		{"double semicolon", ";; header\n(seed 1)", "// header\n(seed 1)"},
		{"colon inside string", `(plane ":radius")`, `(plane ":radius")`},
		{"semicolon inside string", `(plane "a;b")`, `(plane "a;b")`},
		{"escaped quote", `(plane "he said \"hi\" :x")`, `(plane "he said \"hi\" :x")`},
		{"backtick string", "(plane `:radius ; x`)", "(plane `:radius ; x`)"},
		{"bare colon untouched", `(a : b)`, `(a : b)`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.in); got != tt.want {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func evalModel(t *testing.T, source string) *model.Model {
	t.Helper()
	m, evalErrs, err := NewEngine().Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) != 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return m
}

func TestSurfaceBuiltins(t *testing.T) {
	m := evalModel(t, `
(plane "base" :at (vec3 0 0 -5) :rotate (vec3 180 0 0))
(cylinder "bore" :radius 3 :height 10)
(sphere "dome" :radius 8 :at (vec3 1 2 3))
`)
	if m.SurfaceCount() != 3 {
		t.Fatalf("SurfaceCount() = %d, want 3", m.SurfaceCount())
	}

	base := m.Lookup("base")
	if base == nil || base.Kind() != surface.KindPlane {
		t.Fatalf("base = %v", base)
	}

	bore := m.Lookup("bore")
	if bore == nil || bore.Kind() != surface.KindCylinder {
		t.Fatalf("bore = %v", bore)
	}
	if bore.Radius() != 3 || bore.Height() != 10 {
		t.Errorf("bore radius/height = %g/%g, want 3/10", bore.Radius(), bore.Height())
	}

	dome := m.Lookup("dome")
	if dome == nil || dome.Kind() != surface.KindSphere {
		t.Fatalf("dome = %v", dome)
	}
	// Frame placement: the sphere's center projects outward from (1 2 3).
	got := dome.Frame().ToWorld(v3.Vec{})
	if got.X != 1 || got.Y != 2 || got.Z != 3 {
		t.Errorf("dome origin = %v, want (1 2 3)", got)
	}
}

func TestAnonymousSurfaceNames(t *testing.T) {
	m := evalModel(t, `(sphere :radius 1) (sphere :radius 2)`)
	if m.SurfaceCount() != 2 {
		t.Fatalf("SurfaceCount() = %d, want 2", m.SurfaceCount())
	}
	for _, s := range m.Surfaces {
		if !strings.HasPrefix(s.ID, "sphere_") {
			t.Errorf("anonymous surface named %q, want sphere_N", s.ID)
		}
	}
	if m.Surfaces[0].ID == m.Surfaces[1].ID {
		t.Error("anonymous surfaces share a name")
	}
}

func TestChamferBuiltin(t *testing.T) {
	m := evalModel(t, `
(def a (plane "a"))
(def b (plane "b" :rotate (vec3 0 90 0)))
(chamfer "blend" a b :length 1.5)
`)
	blend := m.Lookup("blend")
	if blend == nil || blend.Kind() != surface.KindChamfer {
		t.Fatalf("blend = %v", blend)
	}
	if blend.BlendLength() != 1.5 {
		t.Errorf("length = %g, want 1.5", blend.BlendLength())
	}
	pa, pb := blend.Parents()
	if pa != m.Lookup("a") || pb != m.Lookup("b") {
		t.Error("chamfer parents are not the registered surfaces")
	}
}

func TestBooleanBuiltins(t *testing.T) {
	m := evalModel(t, `
(def a (shape (sphere "a" :radius 1)))
(def b (shape (sphere "b" :radius 2)))
(def c (shape (sphere "c" :radius 3)))
(solid (union (intersect a b) (subtract b c)))
`)
	if m.Tree == nil {
		t.Fatal("no solid declared")
	}
	if m.Tree.Op() != csg.OpUnion {
		t.Errorf("root op = %v, want union", m.Tree.Op())
	}
	if m.Tree.Left().Op() != csg.OpIntersect {
		t.Errorf("left op = %v, want intersect", m.Tree.Left().Op())
	}
	if m.Tree.Right().Op() != csg.OpSubtract {
		t.Errorf("right op = %v, want subtract", m.Tree.Right().Op())
	}
	if got := len(m.Tree.Surfaces()); got != 3 {
		t.Errorf("tree references %d surfaces, want 3", got)
	}
}

func TestConfigBuiltins(t *testing.T) {
	m := evalModel(t, `
(density 2)
(samples 123)
(epsilon 0.001)
(accept 0.1 0.3)
(bounds (vec3 -5 -5 -5) (vec3 5 5 5))
(seed 99)
(edges :iterations 50 :tolerance 0.0001 :stall 0.01)
`)
	cfg := m.Config
	if cfg.Density != 2 {
		t.Errorf("Density = %g", cfg.Density)
	}
	if cfg.SurfaceSamples != 123 {
		t.Errorf("SurfaceSamples = %d", cfg.SurfaceSamples)
	}
	if cfg.Epsilon != 0.001 {
		t.Errorf("Epsilon = %g", cfg.Epsilon)
	}
	if cfg.AcceptDistance != 0.1 || cfg.EdgeAcceptDistance != 0.3 {
		t.Errorf("accept = %g/%g", cfg.AcceptDistance, cfg.EdgeAcceptDistance)
	}
	if cfg.BoundsMin.X != -5 || cfg.BoundsMax.Y != 5 {
		t.Errorf("bounds = %v .. %v", cfg.BoundsMin, cfg.BoundsMax)
	}
	if cfg.Seed != 99 {
		t.Errorf("Seed = %d", cfg.Seed)
	}
	if cfg.Edge.MaxIterations != 50 || cfg.Edge.Tolerance != 0.0001 || cfg.Edge.StallRatio != 0.01 {
		t.Errorf("Edge = %+v", cfg.Edge)
	}
}

func TestChamferCapturesEdgeConfigAtConstruction(t *testing.T) {
	// The edges form only affects chamfers declared after it. This
	// chamfer is built under a one-iteration budget, so its edge search
	// cannot converge even though the form afterwards restores a
	// generous budget to the model config.
	m := evalModel(t, `
(edges :iterations 1)
(def a (plane "a"))
(def b (plane "b" :rotate (vec3 0 90 0)))
(chamfer "blend" a b :length 1)
(edges :iterations 500)
`)
	blend := m.Lookup("blend")
	if blend == nil {
		t.Fatal("blend not registered")
	}
	q := blend.Project(v3.Vec{X: 0.5, Y: 0, Z: 0.5})
	if !surface.Undefined(q) {
		t.Errorf("projection converged under a one-iteration budget: %v", q)
	}
	if m.Config.Edge.MaxIterations != 500 {
		t.Errorf("MaxIterations = %d, want 500", m.Config.Edge.MaxIterations)
	}
}
