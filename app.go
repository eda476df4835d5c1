package main

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/isoform/pkg/engine"
	"github.com/chazu/isoform/pkg/model"
	"github.com/chazu/isoform/pkg/sample"
)

// colorPalette assigns distinct colors to surfaces that set none.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App drives one evaluate-sample-classify cycle: source text in,
// classified point sets out. The rendering of those point sets is
// someone else's job.
type App struct {
	engine *engine.Engine

	// Overrides applied on top of the model's config; nil fields mean
	// "use the model's value".
	density *float64
	seed    *int64
	workers *int
}

// PointSet is the JSON-serializable result for one surface: flat xyz
// triples of the points that survived classification.
type PointSet struct {
	Surface string    `json:"surface"`
	Color   string    `json:"color"`
	Edge    bool      `json:"edge"`
	Points  []float32 `json:"points"` // [x0,y0,z0, x1,y1,z1, ...]
}

// EvalErrorData is a JSON-serializable evaluation error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ScanResult is the full output of one cycle.
type ScanResult struct {
	PointSets []PointSet      `json:"pointSets"`
	Errors    []EvalErrorData `json:"errors"`
	Warnings  []string        `json:"warnings"`
}

// NewApp creates an App with a fresh engine.
func NewApp() *App {
	return &App{engine: engine.NewEngine()}
}

// Evaluate runs the full cycle on one model source. Evaluation and
// validation errors come back in the result rather than as Go errors;
// only the point sets of a clean model are populated.
func (a *App) Evaluate(source string) ScanResult {
	result := ScanResult{
		PointSets: []PointSet{},
		Errors:    []EvalErrorData{},
		Warnings:  []string{},
	}

	m, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, e := range evalErrs {
		result.Errors = append(result.Errors, EvalErrorData{
			Line:    e.Line,
			Col:     e.Col,
			Message: e.Message,
		})
	}
	if len(evalErrs) > 0 {
		return result
	}

	a.applyOverrides(m)

	for _, f := range model.Validate(m) {
		if f.Severity == model.SeverityError {
			result.Errors = append(result.Errors, EvalErrorData{Message: f.Error()})
		} else {
			result.Warnings = append(result.Warnings, f.Error())
		}
	}
	if len(result.Errors) > 0 || m.Tree == nil {
		return result
	}

	res := sample.Scan(m.Surfaces, m.Tree, m.Config)

	for i, s := range m.Surfaces {
		color := s.Color
		if color == "" {
			color = colorPalette[i%len(colorPalette)]
		}
		if len(res.Boundary[i]) > 0 {
			result.PointSets = append(result.PointSets, PointSet{
				Surface: s.ID,
				Color:   color,
				Points:  flatten(res.Boundary[i]),
			})
		}
		if len(res.Edges[i]) > 0 {
			result.PointSets = append(result.PointSets, PointSet{
				Surface: s.ID,
				Color:   color,
				Edge:    true,
				Points:  flatten(res.Edges[i]),
			})
		}
	}
	return result
}

func (a *App) applyOverrides(m *model.Model) {
	if a.density != nil {
		m.Config.Density = *a.density
	}
	if a.seed != nil {
		m.Config.Seed = *a.seed
	}
	if a.workers != nil {
		m.Config.Workers = *a.workers
	}
}

// flatten converts points to the flat float32 layout viewers consume.
func flatten(pts []v3.Vec) []float32 {
	out := make([]float32, 0, len(pts)*3)
	for _, p := range pts {
		out = append(out, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return out
}
