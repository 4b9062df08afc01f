package primitive

import (
	"fmt"
	"strings"

	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/pkg/sequence"
)

// Grid defaults.
const (
	DefaultGridExtent = 10
	DefaultGridRadius = 0.01
)

// DefaultGridColor is a neutral grey.
var DefaultGridColor = geometry.RGB(0.5, 0.5, 0.5)

// Axis selects the direction grid lines run along.
type Axis string

const (
	AxisX Axis = "x"
	AxisY Axis = "y"
	AxisZ Axis = "z"
)

// Axes lists the valid axes in rendering order.
var Axes = [3]Axis{AxisX, AxisY, AxisZ}

// ParseAxis accepts "x", "y" or "z" in either case.
func ParseAxis(s string) (Axis, error) {
	a := Axis(strings.ToLower(strings.TrimSpace(s)))
	if !a.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAxis, s)
	}
	return a, nil
}

// Valid reports whether a is one of x, y, z.
func (a Axis) Valid() bool {
	_, ok := sweepTable[a]
	return ok
}

// Index returns the coordinate index a sweeps (0, 1 or 2), or -1.
func (a Axis) Index() int {
	if l, ok := sweepTable[a]; ok {
		return l.sweep
	}
	return -1
}

// layout maps an axis to the coordinate swept by its lines and the two
// coordinates held at integer offsets.
type layout struct {
	sweep int
	fixed [2]int
}

var sweepTable = map[Axis]layout{
	AxisX: {sweep: 0, fixed: [2]int{1, 2}},
	AxisY: {sweep: 1, fixed: [2]int{0, 2}},
	AxisZ: {sweep: 2, fixed: [2]int{0, 1}},
}

// GridSpec describes a lattice of lines along Axis covering [0, Extent] on
// all three coordinates.
type GridSpec struct {
	Axis   Axis
	Extent int
	Radius float64
	Color  geometry.Color
}

// DefaultGridSpec returns the spec of a default grid plane for axis.
func DefaultGridSpec(axis Axis) GridSpec {
	return GridSpec{
		Axis:   axis,
		Extent: DefaultGridExtent,
		Radius: DefaultGridRadius,
		Color:  DefaultGridColor,
	}
}

// Grid returns a lazy, deterministic sequence of (Extent+1)² cylinders. Each
// line spans [0, Extent] along the axis with the two other coordinates fixed
// at (i, j). Parameters are checked before the sequence is returned.
func Grid(spec GridSpec) (*sequence.Iterator[Primitive], error) {
	l, ok := sweepTable[spec.Axis]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAxis, spec.Axis)
	}
	if spec.Extent <= 0 {
		return nil, fmt.Errorf("%w: extent must be positive, got %d", ErrInvalidGeometryParameter, spec.Extent)
	}
	if err := checkPositive("radius", spec.Radius); err != nil {
		return nil, err
	}
	if !spec.Color.Valid() {
		return nil, fmt.Errorf("%w: color %v outside [0,1]", ErrInvalidGeometryParameter, spec.Color)
	}

	extent := float64(spec.Extent)
	return sequence.New(func(yield func(Primitive) bool) {
		for i, j := range sequence.Grid(spec.Extent) {
			var start, end [3]float64
			start[l.fixed[0]], start[l.fixed[1]] = float64(i), float64(j)
			end = start
			end[l.sweep] = extent

			// Radius and color were checked above.
			p, _ := Segment(geometry.Seg(geometry.FromComponents(start), geometry.FromComponents(end)), spec.Radius, spec.Color)
			p.Key = fmt.Sprintf("%s-%d-%d", spec.Axis, i, j)
			if !yield(p) {
				return
			}
		}
	}), nil
}
