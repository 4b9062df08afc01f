package scene

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/primitive"
)

// GridToggles enables the grid plane of each axis.
type GridToggles struct {
	X bool `json:"x" yaml:"x"`
	Y bool `json:"y" yaml:"y"`
	Z bool `json:"z" yaml:"z"`
}

// AllGrids has every plane on.
var AllGrids = GridToggles{X: true, Y: true, Z: true}

// Enabled reports whether the plane of axis is on.
func (g GridToggles) Enabled(axis primitive.Axis) bool {
	switch axis {
	case primitive.AxisX:
		return g.X
	case primitive.AxisY:
		return g.Y
	case primitive.AxisZ:
		return g.Z
	}
	return false
}

func (g GridToggles) with(axis primitive.Axis, on bool) GridToggles {
	switch axis {
	case primitive.AxisX:
		g.X = on
	case primitive.AxisY:
		g.Y = on
	case primitive.AxisZ:
		g.Z = on
	}
	return g
}

// Limits bound the scale slider and the offset buttons.
type Limits struct {
	MinScale    float64
	MaxScale    float64
	ScaleStep   float64
	OffsetSteps []float64
}

// DefaultLimits returns the slider range 0.01..0.1 in 0.005 steps and the
// ±1, ±0.1 offset buttons.
func DefaultLimits() Limits {
	return Limits{
		MinScale:    0.01,
		MaxScale:    0.1,
		ScaleStep:   0.005,
		OffsetSteps: []float64{-1, -0.1, 0.1, 1},
	}
}

// Validate checks the limits are usable.
func (l Limits) Validate() error {
	if !(l.MinScale > 0) || !(l.MaxScale >= l.MinScale) || math.IsInf(l.MaxScale, 0) {
		return fmt.Errorf("scale range [%v, %v] is invalid", l.MinScale, l.MaxScale)
	}
	if !(l.ScaleStep > 0) {
		return fmt.Errorf("scale step %v must be positive", l.ScaleStep)
	}
	if len(l.OffsetSteps) == 0 {
		return fmt.Errorf("at least one offset step is required")
	}
	for _, s := range l.OffsetSteps {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("offset step %v is invalid", s)
		}
	}
	return nil
}

// State is everything a user can change. Values are immutable; transitions
// return a modified copy.
type State struct {
	Vectors Vectors
	Grid    GridToggles
	// Offset and Scale are applied by the renderer to the whole scene group.
	Offset geometry.Vector3
	Scale  float64
}

// DefaultState is the scene shown before the first form submission.
func DefaultState() State {
	return State{
		Vectors: Vectors{
			A: geometry.Vec3(1, 2, 3),
			B: geometry.Vec3(3, 2, 1),
		},
		Grid:  AllGrids,
		Scale: 0.1,
	}
}

// WithVectors replaces both vectors at once.
func (s State) WithVectors(v Vectors) (State, error) {
	if err := v.Validate(); err != nil {
		return s, err
	}
	s.Vectors = v
	return s, nil
}

// WithGrid switches the plane of axis on or off.
func (s State) WithGrid(axis primitive.Axis, enabled bool) (State, error) {
	if !axis.Valid() {
		return s, fmt.Errorf("%w: %q", primitive.ErrInvalidAxis, axis)
	}
	s.Grid = s.Grid.with(axis, enabled)
	return s, nil
}

// WithOffsetNudge moves the scene along axis by delta, which must be one of
// the configured steps.
func (s State) WithOffsetNudge(axis primitive.Axis, delta float64, limits Limits) (State, error) {
	if !axis.Valid() {
		return s, fmt.Errorf("%w: %q", primitive.ErrInvalidAxis, axis)
	}
	if !slices.Contains(limits.OffsetSteps, delta) {
		return s, fmt.Errorf("%w: %v", ErrInvalidOffsetStep, delta)
	}

	c := geometry.Components(s.Offset)
	c[axis.Index()] = roundNano(c[axis.Index()] + delta)
	s.Offset = geometry.FromComponents(c)
	return s, nil
}

// WithScale sets the uniform scale, clamped to the limits and snapped to
// the slider step.
func (s State) WithScale(scale float64, limits Limits) (State, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return s, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}

	scale = min(max(scale, limits.MinScale), limits.MaxScale)
	steps := math.Round((scale - limits.MinScale) / limits.ScaleStep)
	scale = min(roundNano(limits.MinScale+steps*limits.ScaleStep), limits.MaxScale)

	s.Scale = scale
	return s, nil
}

// Digest returns a 64-bit xxhash of every field of s.
func (s State) Digest() uint64 {
	buf := make([]byte, 0, 11*8+3)
	for _, f := range []float64{
		s.Vectors.A.X, s.Vectors.A.Y, s.Vectors.A.Z,
		s.Vectors.B.X, s.Vectors.B.Y, s.Vectors.B.Z,
		s.Offset.X, s.Offset.Y, s.Offset.Z,
		s.Scale,
	} {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	}
	for _, on := range []bool{s.Grid.X, s.Grid.Y, s.Grid.Z} {
		if on {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return xxhash.Sum64(buf)
}

// roundNano keeps repeated ±0.1 nudges from accumulating binary noise.
func roundNano(f float64) float64 {
	return math.Round(f*1e9) / 1e9
}
