package csg

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/surface"
)

// Classification is the ternary relation of a point to a surface, shape
// or tree.
type Classification int

const (
	Outside Classification = iota
	On
	Inside
)

func (c Classification) String() string {
	switch c {
	case Outside:
		return "outside"
	case On:
		return "on"
	case Inside:
		return "inside"
	default:
		return "unknown"
	}
}

// ClassifySurface relates p to a single surface. The signed distance of
// p from its projection, measured along the outward normal at the
// projection, decides the result: positive is behind the surface
// (inside the half-space), negative in front of it, and anything within
// eps counts as on the surface. eps is the one shared on-surface
// tolerance of the whole kernel. A surface that is undefined at p
// bounds no half-space there and classifies as Outside.
func ClassifySurface(p v3.Vec, s *surface.Surface, eps float64) Classification {
	closest := s.Project(p)
	if surface.Undefined(closest) {
		return Outside
	}
	return classifyAt(p, closest, s, eps)
}

// classifyAt is the signed-distance verdict for a point against its
// already-computed, defined projection.
func classifyAt(p, closest v3.Vec, s *surface.Surface, eps float64) Classification {
	d := closest.Sub(p).Dot(s.Normal(closest))
	switch {
	case d > eps:
		return Inside
	case d < -eps:
		return Outside
	}
	return On
}

// ClassifyShape relates p to a leaf shape, the intersection of its
// surfaces' half-spaces. A point generated on one of the shape's own
// surfaces is On by identity, regardless of floating-point drift
// against the other members; the membership test compares pointers,
// never values. Otherwise any Outside verdict wins immediately, any On
// downgrades an eventual Inside, and only a point inside every
// half-space is Inside. A member whose projection is undefined at p
// bounds no half-space there and contributes no verdict; the remaining
// members decide. origin may be nil.
func ClassifyShape(p v3.Vec, origin *surface.Surface, sh *Shape, eps float64) Classification {
	if origin != nil && sh.Member(origin) {
		return On
	}
	result := Inside
	for _, s := range sh.Surfaces {
		closest := s.Project(p)
		if surface.Undefined(closest) {
			continue
		}
		switch classifyAt(p, closest, s, eps) {
		case Outside:
			return Outside
		case On:
			result = On
		}
	}
	return result
}

// Classify relates p to a full CSG tree. Leaves delegate to
// ClassifyShape; interior nodes classify both children and combine the
// verdicts with the operation's truth table. This is what lets a point
// sampled near any constituent surface be judged against the boundary
// of the composed solid without ever materializing that boundary.
func Classify(p v3.Vec, origin *surface.Surface, n *Node, eps float64) Classification {
	if n.IsLeaf() {
		return ClassifyShape(p, origin, n.shape, eps)
	}
	a := Classify(p, origin, n.left, eps)
	b := Classify(p, origin, n.right, eps)
	return Combine(n.op, a, b)
}

// Combine applies one boolean operation to two child classifications.
func Combine(op Op, a, b Classification) Classification {
	switch op {
	case OpUnion:
		switch {
		case a == Inside || b == Inside:
			return Inside
		case a == Outside && b == Outside:
			return Outside
		}
		return On

	case OpSubtract:
		if a == Outside {
			return Outside
		}
		switch b {
		case Outside:
			return a
		case On:
			return On
		}
		return Outside

	case OpIntersect:
		switch {
		case a == Outside || b == Outside:
			return Outside
		case a == On || b == On:
			return On
		}
		return Inside
	}
	// The operation set is closed and checked at construction; anything
	// else degrades to empty space rather than failing.
	return Outside
}
