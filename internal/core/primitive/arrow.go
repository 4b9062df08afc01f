package primitive

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/zeusync/vectorlab/internal/core/geometry"
)

// Arrow defaults, in scene units.
const (
	DefaultShaftRadius = 0.05
	DefaultTipRadius   = 0.1
	DefaultTipLength   = 0.3
)

// ArrowSpec describes a directed segment drawn as a cylindrical shaft capped
// by a conical tip of fixed length.
type ArrowSpec struct {
	Name        string
	Start       geometry.Point3
	End         geometry.Point3
	Color       geometry.Color
	ShaftRadius float64
	TipRadius   float64
	TipLength   float64
}

// DefaultArrowSpec returns a spec with the default radii and tip length.
func DefaultArrowSpec(start, end geometry.Point3, color geometry.Color) ArrowSpec {
	return ArrowSpec{
		Start:       start,
		End:         end,
		Color:       color,
		ShaftRadius: DefaultShaftRadius,
		TipRadius:   DefaultTipRadius,
		TipLength:   DefaultTipLength,
	}
}

// ArrowPrimitives are the two shapes making up one arrow. The tip's base sits
// where the shaft ends.
type ArrowPrimitives struct {
	Shaft Primitive
	Tip   Primitive
}

// Arrow splits spec into shaft and tip.
//
// The shaft is |end-start| - TipLength long, clamped at zero: when the tip is
// longer than the whole vector the shaft collapses to a zero-length segment
// at Start and the tip spans the entire vector.
func Arrow(spec ArrowSpec) (ArrowPrimitives, error) {
	if err := checkPositive("tip length", spec.TipLength); err != nil {
		return ArrowPrimitives{}, err
	}

	total := r3.Sub(spec.End, spec.Start)
	totalLength := r3.Norm(total)
	shaftLength := max(totalLength-spec.TipLength, 0)

	shaftEnd := spec.Start
	if totalLength > 0 {
		shaftEnd = r3.Add(spec.Start, r3.Scale(shaftLength/totalLength, total))
	}

	shaft, err := build(Cylinder, geometry.Seg(spec.Start, shaftEnd), spec.ShaftRadius, spec.Color)
	if err != nil {
		return ArrowPrimitives{}, err
	}
	tip, err := build(Cone, geometry.Seg(shaftEnd, spec.End), spec.TipRadius, spec.Color)
	if err != nil {
		return ArrowPrimitives{}, err
	}

	if spec.Name != "" {
		shaft.Key = spec.Name + "/shaft"
		tip.Key = spec.Name + "/tip"
	}

	return ArrowPrimitives{Shaft: shaft, Tip: tip}, nil
}
