package model

import (
	"fmt"

	"github.com/chazu/isoform/pkg/csg"
	"github.com/chazu/isoform/pkg/surface"
)

// Severity indicates whether a validation finding blocks sampling or is
// merely advisory.
type Severity int

const (
	SeverityError   Severity = iota // blocks sampling
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding describes a single validation result.
type Finding struct {
	Surface  string // offending surface ID, empty for model-level findings
	Message  string
	Severity Severity
}

func (f Finding) Error() string {
	if f.Surface == "" {
		return fmt.Sprintf("[%s] %s", f.Severity, f.Message)
	}
	return fmt.Sprintf("[%s] surface %q: %s", f.Severity, f.Surface, f.Message)
}

// Validate runs all structural checks on the model and returns every
// finding. It is read-only and never mutates the model. Sampling should
// proceed only when no finding has SeverityError.
func Validate(m *Model) []Finding {
	var out []Finding
	out = append(out, validateSurfaces(m)...)
	out = append(out, validateTree(m)...)
	out = append(out, validateConfig(m)...)
	return out
}

// HasErrors reports whether any finding blocks sampling.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateSurfaces(m *Model) []Finding {
	var out []Finding
	seen := make(map[string]bool)
	registered := make(map[*surface.Surface]bool)
	for _, s := range m.Surfaces {
		registered[s] = true
	}

	for _, s := range m.Surfaces {
		if s.ID != "" {
			if seen[s.ID] {
				out = append(out, Finding{
					Surface:  s.ID,
					Message:  "duplicate surface ID, later registration shadows it",
					Severity: SeverityWarning,
				})
			}
			seen[s.ID] = true
		}

		switch s.Kind() {
		case surface.KindSphere, surface.KindCylinder:
			if s.Radius() <= 0 {
				out = append(out, Finding{
					Surface:  s.ID,
					Message:  fmt.Sprintf("%s radius must be positive, got %g", s.Kind(), s.Radius()),
					Severity: SeverityError,
				})
			}
			if s.Kind() == surface.KindCylinder && s.Height() < 0 {
				out = append(out, Finding{
					Surface:  s.ID,
					Message:  fmt.Sprintf("cylinder height must not be negative, got %g", s.Height()),
					Severity: SeverityError,
				})
			}
		case surface.KindChamfer:
			a, b := s.Parents()
			if a == nil || b == nil {
				out = append(out, Finding{
					Surface:  s.ID,
					Message:  "chamfer is missing a parent surface",
					Severity: SeverityError,
				})
				continue
			}
			if a == b {
				out = append(out, Finding{
					Surface:  s.ID,
					Message:  "chamfer parents must be two distinct surfaces",
					Severity: SeverityError,
				})
			}
			if !registered[a] || !registered[b] {
				out = append(out, Finding{
					Surface:  s.ID,
					Message:  "chamfer references an unregistered surface",
					Severity: SeverityError,
				})
			}
			if s.BlendLength() <= 0 {
				out = append(out, Finding{
					Surface:  s.ID,
					Message:  fmt.Sprintf("chamfer length must be positive, got %g", s.BlendLength()),
					Severity: SeverityError,
				})
			}
		}
	}
	return out
}

func validateTree(m *Model) []Finding {
	var out []Finding
	if m.Tree == nil {
		if len(m.Surfaces) > 0 {
			out = append(out, Finding{
				Message:  "surfaces are registered but no solid is declared",
				Severity: SeverityWarning,
			})
		}
		return out
	}

	registered := make(map[*surface.Surface]bool)
	for _, s := range m.Surfaces {
		registered[s] = true
	}

	referenced := make(map[*surface.Surface]bool)
	for _, s := range m.Tree.Surfaces() {
		referenced[s] = true
		if !registered[s] {
			out = append(out, Finding{
				Surface:  s.ID,
				Message:  "solid references an unregistered surface",
				Severity: SeverityError,
			})
		}
	}

	out = append(out, validateShapes(m.Tree)...)

	for _, s := range m.Surfaces {
		if !referenced[s] {
			out = append(out, Finding{
				Surface:  s.ID,
				Message:  "surface is registered but unused by the solid",
				Severity: SeverityWarning,
			})
		}
	}
	return out
}

func validateShapes(n *csg.Node) []Finding {
	if n == nil {
		return nil
	}
	if n.IsLeaf() {
		if len(n.Shape().Surfaces) == 0 {
			return []Finding{{
				Message:  "solid contains an empty shape",
				Severity: SeverityError,
			}}
		}
		return nil
	}
	return append(validateShapes(n.Left()), validateShapes(n.Right())...)
}

func validateConfig(m *Model) []Finding {
	var out []Finding
	c := m.Config
	if c.Density <= 0 {
		out = append(out, Finding{
			Message:  fmt.Sprintf("density must be positive, got %g", c.Density),
			Severity: SeverityError,
		})
	}
	d := c.BoundsMax.Sub(c.BoundsMin)
	if d.X <= 0 || d.Y <= 0 || d.Z <= 0 {
		out = append(out, Finding{
			Message:  "sampling bounds are empty or inverted",
			Severity: SeverityError,
		})
	}
	if c.Epsilon <= 0 {
		out = append(out, Finding{
			Message:  fmt.Sprintf("epsilon must be positive, got %g", c.Epsilon),
			Severity: SeverityError,
		})
	}
	if c.Edge.MaxIterations <= 0 || c.Edge.Tolerance <= 0 {
		out = append(out, Finding{
			Message:  "edge search needs a positive iteration cap and tolerance",
			Severity: SeverityError,
		})
	}
	return out
}
