// Package model holds the evaluated scene: the registered surfaces, the
// CSG tree composed over them, and the sampling configuration. A Model
// is the immutable product of one engine evaluation; it is never
// mutated once handed to the sampler.
package model

import (
	"github.com/chazu/isoform/pkg/csg"
	"github.com/chazu/isoform/pkg/sample"
	"github.com/chazu/isoform/pkg/surface"
)

// Model is one complete scene definition.
type Model struct {
	// Surfaces in registration order; the order fixes result buckets
	// and palette assignment downstream.
	Surfaces []*surface.Surface

	// Tree is the solid's CSG tree, nil when the source never declares
	// a solid.
	Tree *csg.Node

	// Config is the sampling configuration, defaults plus whatever the
	// source overrode.
	Config sample.Config

	nameIndex map[string]*surface.Surface
}

// New creates an empty model with the default sampling configuration.
func New() *Model {
	return &Model{
		Config:    sample.DefaultConfig(),
		nameIndex: make(map[string]*surface.Surface),
	}
}

// AddSurface registers a surface. Later registrations shadow earlier
// ones in the name index but both stay in the surface list.
func (m *Model) AddSurface(s *surface.Surface) {
	m.Surfaces = append(m.Surfaces, s)
	if s.ID != "" {
		m.nameIndex[s.ID] = s
	}
}

// Lookup returns the registered surface with the given ID, or nil.
func (m *Model) Lookup(id string) *surface.Surface {
	return m.nameIndex[id]
}

// Index returns the registration index of s, or -1.
func (m *Model) Index(s *surface.Surface) int {
	for i, r := range m.Surfaces {
		if r == s {
			return i
		}
	}
	return -1
}

// SurfaceCount returns the number of registered surfaces.
func (m *Model) SurfaceCount() int {
	return len(m.Surfaces)
}
