package engine

import (
	"fmt"
	"strings"
	"sync/atomic"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/isoform/pkg/csg"
	"github.com/chazu/isoform/pkg/model"
	"github.com/chazu/isoform/pkg/surface"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix marks keyword arguments rewritten by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites model source before it reaches zygomys:
//
//  1. :keyword -> "__kw_keyword" string literals, so keywords need no
//     global symbol registration and cannot collide with user variables.
//  2. ; line comments -> // comments, zygomys's comment syntax.
//
// Both rewrites respect string literal boundaries. Builtin names in
// this DSL are single words, so no identifier rewriting is needed.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/8)

	b := []byte(source)
	for i := 0; i < len(b); {
		switch {
		case b[i] == '"' || b[i] == '`':
			quote := b[i]
			out.WriteByte(b[i])
			i++
			for i < len(b) && b[i] != quote {
				if quote == '"' && b[i] == '\\' && i+1 < len(b) {
					out.WriteByte(b[i])
					i++
				}
				out.WriteByte(b[i])
				i++
			}
			if i < len(b) {
				out.WriteByte(b[i])
				i++
			}

		case b[i] == ';':
			out.WriteString("//")
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				out.WriteByte(b[i])
				i++
			}

		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out.WriteByte('"')
			out.WriteString(kwPrefix)
			out.Write(b[i+1 : j])
			out.WriteByte('"')
			i = j

		default:
			out.WriteByte(b[i])
			i++
		}
	}
	return out.String()
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a v3.Vec.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSurfaceRef wraps a registered surface so it can be passed between
// builtins.
type sexpSurfaceRef struct {
	s *surface.Surface
}

func (r *sexpSurfaceRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", r.s.Kind(), r.s.ID)
}
func (r *sexpSurfaceRef) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a CSG tree so boolean builtins can compose it.
type sexpNodeRef struct {
	node *csg.Node
}

func (r *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if r.node.IsLeaf() {
		return fmt.Sprintf("(shape %d)", len(r.node.Shape().Surfaces))
	}
	return fmt.Sprintf("(%s ...)", r.node.Op())
}
func (r *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwArgs holds a parsed mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords carry the kwPrefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); {
		if name, ok := isKW(args[i]); ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
			continue
		}
		result.positional = append(result.positional, args[i])
		i++
	}
	return result
}

// isKW checks whether a Sexp is a preprocessed keyword string and
// returns its bare name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toSurface(s zygo.Sexp) (*surface.Surface, error) {
	if r, ok := s.(*sexpSurfaceRef); ok {
		return r.s, nil
	}
	return nil, fmt.Errorf("expected surface reference, got %T (%s)", s, s.SexpString(nil))
}

func toNode(s zygo.Sexp) (*csg.Node, error) {
	if r, ok := s.(*sexpNodeRef); ok {
		return r.node, nil
	}
	return nil, fmt.Errorf("expected shape or boolean result, got %T (%s)", s, s.SexpString(nil))
}

// surfaceArgs is the common argument bundle of the surface builtins: an
// optional leading name string plus :at, :rotate, :color keywords.
type surfaceArgs struct {
	name  string
	at    v3.Vec
	rot   v3.Vec
	color string
	kw    map[string]zygo.Sexp
	rest  []zygo.Sexp
}

// surfaceCounter names anonymous surfaces.
var surfaceCounter uint64

func parseSurfaceArgs(builtin string, args []zygo.Sexp) (surfaceArgs, error) {
	pa := parseArgs(args)
	sa := surfaceArgs{kw: pa.kw, rest: pa.positional}

	if len(pa.positional) > 0 {
		if name, ok := pa.positional[0].(*zygo.SexpStr); ok && !strings.HasPrefix(name.S, kwPrefix) {
			sa.name = name.S
			sa.rest = pa.positional[1:]
		}
	}
	if sa.name == "" {
		sa.name = fmt.Sprintf("%s_%d", builtin, atomic.AddUint64(&surfaceCounter, 1))
	}

	if v, ok := pa.kw["at"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return sa, fmt.Errorf("%s: at: %w", builtin, err)
		}
		sa.at = vec
	}
	if v, ok := pa.kw["rotate"]; ok {
		vec, err := toVec3(v)
		if err != nil {
			return sa, fmt.Errorf("%s: rotate: %w", builtin, err)
		}
		sa.rot = vec
	}
	if v, ok := pa.kw["color"]; ok {
		c, err := toString(v)
		if err != nil {
			return sa, fmt.Errorf("%s: color: %w", builtin, err)
		}
		sa.color = c
	}
	return sa, nil
}

func (sa surfaceArgs) float(builtin, key string) (float64, bool, error) {
	v, ok := sa.kw[key]
	if !ok {
		return 0, false, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %s: %w", builtin, key, err)
	}
	return f, true, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the model-definition builtins into a
// zygomys environment. The builtins populate m during evaluation.
// Source must have passed through preprocessSource first so :keyword
// tokens are recognizable.
func registerBuiltins(env *zygo.Zlisp, m *model.Model) {

	// -----------------------------------------------------------------------
	// (vec3 x y z)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 numbers, got %d args", len(args))
		}
		var v v3.Vec
		for i, dst := range []*float64{&v.X, &v.Y, &v.Z} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: component %d: %w", i, err)
			}
			*dst = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (plane "base" :at (vec3 0 0 -8) :rotate (vec3 0 0 0) :color "#2ECC71")
	// -----------------------------------------------------------------------
	env.AddFunction("plane", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		sa, err := parseSurfaceArgs("plane", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		s := surface.NewPlane(sa.name, sa.at, sa.rot)
		s.Color = sa.color
		m.AddSurface(s)
		return &sexpSurfaceRef{s: s}, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder "bore" :radius 4 :height 10 :at ... :rotate ...)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		sa, err := parseSurfaceArgs("cylinder", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		radius, ok, err := sa.float("cylinder", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("cylinder requires :radius")
		}
		height, _, err := sa.float("cylinder", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		s := surface.NewCylinder(sa.name, radius, height, sa.at, sa.rot)
		s.Color = sa.color
		m.AddSurface(s)
		return &sexpSurfaceRef{s: s}, nil
	})

	// -----------------------------------------------------------------------
	// (sphere "dome" :radius 8 :at (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		sa, err := parseSurfaceArgs("sphere", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		radius, ok, err := sa.float("sphere", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("sphere requires :radius")
		}
		s := surface.NewSphere(sa.name, radius, sa.at)
		s.Color = sa.color
		m.AddSurface(s)
		return &sexpSurfaceRef{s: s}, nil
	})

	// -----------------------------------------------------------------------
	// (chamfer "blend" a b :length 1.5)
	// -----------------------------------------------------------------------
	env.AddFunction("chamfer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		sa, err := parseSurfaceArgs("chamfer", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(sa.rest) != 2 {
			return zygo.SexpNull, fmt.Errorf("chamfer requires two parent surfaces, got %d", len(sa.rest))
		}
		a, err := toSurface(sa.rest[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chamfer: first parent: %w", err)
		}
		b, err := toSurface(sa.rest[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("chamfer: second parent: %w", err)
		}
		length, ok, err := sa.float("chamfer", "length")
		if err != nil {
			return zygo.SexpNull, err
		}
		if !ok {
			return zygo.SexpNull, fmt.Errorf("chamfer requires :length")
		}
		s := surface.NewChamfer(sa.name, a, b, length, m.Config.Edge)
		s.Color = sa.color
		m.AddSurface(s)
		return &sexpSurfaceRef{s: s}, nil
	})

	// -----------------------------------------------------------------------
	// (shape a b c ...) -> leaf node: intersection of half-spaces
	// -----------------------------------------------------------------------
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			return zygo.SexpNull, fmt.Errorf("shape requires at least one surface")
		}
		surfaces := make([]*surface.Surface, 0, len(args))
		for i, a := range args {
			s, err := toSurface(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("shape: argument %d: %w", i+1, err)
			}
			surfaces = append(surfaces, s)
		}
		return &sexpNodeRef{node: csg.Leaf(csg.NewShape(surfaces...))}, nil
	})

	// -----------------------------------------------------------------------
	// (union a b), (subtract a b), (intersect a b)
	// -----------------------------------------------------------------------
	for opName, op := range map[string]csg.Op{
		"union":     csg.OpUnion,
		"subtract":  csg.OpSubtract,
		"intersect": csg.OpIntersect,
	} {
		opName, op := opName, op
		env.AddFunction(opName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) != 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires exactly two operands, got %d", opName, len(args))
			}
			a, err := toNode(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: first operand: %w", opName, err)
			}
			b, err := toNode(args[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: second operand: %w", opName, err)
			}
			node, err := csg.NewNode(op, a, b)
			if err != nil {
				return zygo.SexpNull, err
			}
			return &sexpNodeRef{node: node}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (solid x) -> declares the model's solid
	// -----------------------------------------------------------------------
	env.AddFunction("solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("solid requires exactly one tree, got %d args", len(args))
		}
		node, err := toNode(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("solid: %w", err)
		}
		if m.Tree != nil {
			return zygo.SexpNull, fmt.Errorf("solid declared more than once")
		}
		m.Tree = node
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// Configuration forms. Each overrides one field of the sampling
	// config; unset fields keep their defaults.
	// -----------------------------------------------------------------------

	// (density 0.5)
	env.AddFunction("density", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := oneFloat("density", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		m.Config.Density = f
		return zygo.SexpNull, nil
	})

	// (samples 2000)
	env.AddFunction("samples", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("samples requires exactly one integer")
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("samples: %w", err)
		}
		m.Config.SurfaceSamples = n
		return zygo.SexpNull, nil
	})

	// (epsilon 1e-4)
	env.AddFunction("epsilon", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := oneFloat("epsilon", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		m.Config.Epsilon = f
		return zygo.SexpNull, nil
	})

	// (accept 0.15 0.45) -> surface and edge-candidate thresholds
	env.AddFunction("accept", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("accept requires two distances (surface, edge), got %d args", len(args))
		}
		tight, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("accept: surface distance: %w", err)
		}
		loose, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("accept: edge distance: %w", err)
		}
		m.Config.AcceptDistance = tight
		m.Config.EdgeAcceptDistance = loose
		return zygo.SexpNull, nil
	})

	// (bounds (vec3 -20 -20 -20) (vec3 20 20 20))
	env.AddFunction("bounds", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("bounds requires two vec3 corners, got %d args", len(args))
		}
		lo, err := toVec3(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bounds: min corner: %w", err)
		}
		hi, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("bounds: max corner: %w", err)
		}
		m.Config.BoundsMin = lo
		m.Config.BoundsMax = hi
		return zygo.SexpNull, nil
	})

	// (seed 42)
	env.AddFunction("seed", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("seed requires exactly one integer")
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("seed: %w", err)
		}
		m.Config.Seed = int64(n)
		return zygo.SexpNull, nil
	})

	// (edges :iterations 100 :tolerance 1e-7 :stall 1e-3)
	env.AddFunction("edges", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if v, ok := pa.kw["iterations"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("edges: iterations: %w", err)
			}
			m.Config.Edge.MaxIterations = n
		}
		if v, ok := pa.kw["tolerance"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("edges: tolerance: %w", err)
			}
			m.Config.Edge.Tolerance = f
		}
		if v, ok := pa.kw["stall"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("edges: stall: %w", err)
			}
			m.Config.Edge.StallRatio = f
		}
		return zygo.SexpNull, nil
	})
}

func oneFloat(builtin string, args []zygo.Sexp) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s requires exactly one number, got %d args", builtin, len(args))
	}
	f, err := toFloat64(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", builtin, err)
	}
	return f, nil
}
