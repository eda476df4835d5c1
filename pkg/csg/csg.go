// Package csg evaluates constructive solid geometry trees over implicit
// surfaces with a three-valued point classification. The tree is built
// once, never mutated, and shared read-only by every classification
// query.
package csg

import (
	"fmt"

	"github.com/chazu/isoform/pkg/surface"
)

// Op enumerates the closed set of boolean operations.
type Op int

const (
	OpUnion Op = iota
	OpSubtract
	OpIntersect
)

func (o Op) String() string {
	switch o {
	case OpUnion:
		return "union"
	case OpSubtract:
		return "subtract"
	case OpIntersect:
		return "intersect"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Shape is a leaf solid: the intersection of the half-spaces bounded by
// its surfaces. Surface order is irrelevant to the solid it describes,
// but the identity of each member matters for the origin short-circuit
// during classification.
type Shape struct {
	Surfaces []*surface.Surface
}

// NewShape builds a leaf shape from its bounding surfaces.
func NewShape(surfaces ...*surface.Surface) *Shape {
	return &Shape{Surfaces: surfaces}
}

// Member reports whether s is one of the shape's surfaces, by identity.
func (sh *Shape) Member(s *surface.Surface) bool {
	for _, m := range sh.Surfaces {
		if m == s {
			return true
		}
	}
	return false
}

// Node is one vertex of an immutable CSG tree: either a leaf holding a
// Shape, or an interior node combining two children with an Op.
type Node struct {
	shape       *Shape
	op          Op
	left, right *Node
}

// Leaf wraps a shape as a single-node tree.
func Leaf(s *Shape) *Node { return &Node{shape: s} }

// Union combines two trees with the union operation.
func Union(a, b *Node) *Node { return &Node{op: OpUnion, left: a, right: b} }

// Subtract removes b from a.
func Subtract(a, b *Node) *Node { return &Node{op: OpSubtract, left: a, right: b} }

// Intersect keeps the common region of a and b.
func Intersect(a, b *Node) *Node { return &Node{op: OpIntersect, left: a, right: b} }

// NewNode builds an interior node, rejecting operations outside the
// closed set. The typed constructors above cannot fail; this entry
// point exists for callers that receive the operation as data.
func NewNode(op Op, a, b *Node) (*Node, error) {
	switch op {
	case OpUnion, OpSubtract, OpIntersect:
		return &Node{op: op, left: a, right: b}, nil
	}
	return nil, fmt.Errorf("csg: unknown operation %d", int(op))
}

// IsLeaf reports whether the node holds a shape.
func (n *Node) IsLeaf() bool { return n.shape != nil }

// Shape returns the leaf shape, nil for interior nodes.
func (n *Node) Shape() *Shape { return n.shape }

// Op returns the interior node's operation; meaningless for leaves.
func (n *Node) Op() Op { return n.op }

// Left returns the first child, nil for leaves.
func (n *Node) Left() *Node { return n.left }

// Right returns the second child, nil for leaves.
func (n *Node) Right() *Node { return n.right }

// Surfaces returns the distinct surfaces referenced anywhere in the
// tree, in first-visit order.
func (n *Node) Surfaces() []*surface.Surface {
	seen := make(map[*surface.Surface]bool)
	var out []*surface.Surface
	n.walk(func(sh *Shape) {
		for _, s := range sh.Surfaces {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	})
	return out
}

func (n *Node) walk(visit func(*Shape)) {
	if n == nil {
		return
	}
	if n.shape != nil {
		visit(n.shape)
		return
	}
	n.left.walk(visit)
	n.right.walk(visit)
}
