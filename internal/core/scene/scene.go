// Package scene derives the vector-addition scene (three arrows and the
// reference grids) from the interaction state.
package scene

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/primitive"
)

// Arrow names, also used as primitive key prefixes.
const (
	ArrowA   = "vector-1"
	ArrowB   = "vector-2"
	ArrowSum = "vector-3"
)

// Arrow colours.
var (
	ColorA   = geometry.RGB(1, 0.2, 0.2)
	ColorB   = geometry.RGB(0.2, 1, 0.2)
	ColorSum = geometry.RGB(0.2, 0.2, 1)
)

// Vectors are the two user supplied operands.
type Vectors struct {
	A geometry.Vector3
	B geometry.Vector3
}

// Sum returns A + B.
func (v Vectors) Sum() geometry.Vector3 {
	return r3.Add(v.A, v.B)
}

// Validate rejects NaN and infinite components.
func (v Vectors) Validate() error {
	if !geometry.IsFinite(v.A) {
		return fmt.Errorf("%w: A = %v", ErrNonFiniteVector, v.A)
	}
	if !geometry.IsFinite(v.B) {
		return fmt.Errorf("%w: B = %v", ErrNonFiniteVector, v.B)
	}
	return nil
}

// Derive returns the three arrows of the sum construction: A from the
// origin, B chained onto the tip of A, and A+B from the origin.
func Derive(a, b geometry.Vector3) [3]primitive.ArrowSpec {
	sum := r3.Add(a, b)
	specs := [3]primitive.ArrowSpec{
		primitive.DefaultArrowSpec(geometry.Origin, a, ColorA),
		primitive.DefaultArrowSpec(a, sum, ColorB),
		primitive.DefaultArrowSpec(geometry.Origin, sum, ColorSum),
	}
	specs[0].Name, specs[1].Name, specs[2].Name = ArrowA, ArrowB, ArrowSum
	return specs
}

// ArrowStyle holds the arrow dimensions applied to derived specs.
type ArrowStyle struct {
	ShaftRadius float64
	TipRadius   float64
	TipLength   float64
}

// Apply overrides the dimensions of spec.
func (s ArrowStyle) Apply(spec primitive.ArrowSpec) primitive.ArrowSpec {
	spec.ShaftRadius = s.ShaftRadius
	spec.TipRadius = s.TipRadius
	spec.TipLength = s.TipLength
	return spec
}

// GridStyle holds the grid plane parameters shared by all axes.
type GridStyle struct {
	Extent int
	Radius float64
	Color  geometry.Color
}

// Spec returns the grid spec for axis.
func (s GridStyle) Spec(axis primitive.Axis) primitive.GridSpec {
	return primitive.GridSpec{Axis: axis, Extent: s.Extent, Radius: s.Radius, Color: s.Color}
}

// Options configure rendering and the allowed state transitions.
type Options struct {
	Arrow  ArrowStyle
	Grid   GridStyle
	Limits Limits
}

// DefaultOptions mirrors the dimensions of the classroom viewer.
func DefaultOptions() Options {
	return Options{
		Arrow: ArrowStyle{
			ShaftRadius: primitive.DefaultShaftRadius,
			TipRadius:   primitive.DefaultTipRadius,
			TipLength:   primitive.DefaultTipLength,
		},
		Grid: GridStyle{
			Extent: primitive.DefaultGridExtent,
			Radius: primitive.DefaultGridRadius,
			Color:  primitive.DefaultGridColor,
		},
		Limits: DefaultLimits(),
	}
}

// Validate checks o by building one primitive of each kind.
func (o Options) Validate() error {
	probe := o.Arrow.Apply(primitive.DefaultArrowSpec(geometry.Origin, geometry.Up, ColorA))
	if _, err := primitive.Arrow(probe); err != nil {
		return fmt.Errorf("%w: arrow: %w", ErrInvalidOptions, err)
	}
	if _, err := primitive.Grid(o.Grid.Spec(primitive.AxisX)); err != nil {
		return fmt.Errorf("%w: grid: %w", ErrInvalidOptions, err)
	}
	if err := o.Limits.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}
