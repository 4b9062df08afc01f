// Package primitive builds renderable shapes (line segments, arrows, grid
// planes) from placement data computed by package geometry.
package primitive

import (
	"fmt"
	"math"

	"github.com/zeusync/vectorlab/internal/core/geometry"
)

// Shape tells the renderer which canonical mesh to instantiate. Both meshes
// are modelled along +Y with unit height, centred on the origin.
type Shape uint8

const (
	Cylinder Shape = iota
	Cone
)

func (s Shape) String() string {
	switch s {
	case Cylinder:
		return "cylinder"
	case Cone:
		return "cone"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

// Primitive is the unit handed to the renderer. It is derived from scratch
// on every input change and never mutated.
type Primitive struct {
	// Key identifies the primitive across re-renders.
	Key       string
	Shape     Shape
	Placement geometry.Placement
	Radius    float64
	Color     geometry.Color
}

// Segment builds the cylinder covering seg.
func Segment(seg geometry.Segment, radius float64, color geometry.Color) (Primitive, error) {
	return build(Cylinder, seg, radius, color)
}

func build(shape Shape, seg geometry.Segment, radius float64, color geometry.Color) (Primitive, error) {
	if err := checkPositive("radius", radius); err != nil {
		return Primitive{}, err
	}
	if !color.Valid() {
		return Primitive{}, fmt.Errorf("%w: color %v outside [0,1]", ErrInvalidGeometryParameter, color)
	}

	return Primitive{
		Shape:     shape,
		Placement: seg.Place(),
		Radius:    radius,
		Color:     color,
	}, nil
}

func checkPositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return fmt.Errorf("%w: %s must be positive and finite, got %v", ErrInvalidGeometryParameter, name, v)
	}
	return nil
}
