package scene

import (
	"fmt"

	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/primitive"
)

// Group is the transform the renderer applies to the whole scene. The core
// passes it through untouched.
type Group struct {
	Scale  float64
	Offset geometry.Vector3
}

// Arrow is one rendered arrow.
type Arrow struct {
	Name  string
	Spec  primitive.ArrowSpec
	Shaft primitive.Primitive
	Tip   primitive.Primitive
}

// GridPlane holds the lines of one enabled axis.
type GridPlane struct {
	Axis  primitive.Axis
	Lines []primitive.Primitive
}

// Frame is everything the renderer needs for one state. Frames may share
// slices with cached frames and must be treated as read-only.
type Frame struct {
	State  State
	Digest uint64
	Group  Group
	Arrows [3]Arrow
	Grids  []GridPlane
}

// Primitives returns the number of primitives in the frame.
func (f Frame) Primitives() int {
	n := 2 * len(f.Arrows)
	for _, g := range f.Grids {
		n += len(g.Lines)
	}
	return n
}

// Render derives a frame from state. It is a pure function of its inputs.
func Render(state State, opts Options) (Frame, error) {
	return render(state, opts, buildGrid)
}

func render(state State, opts Options, grid func(primitive.GridSpec) ([]primitive.Primitive, error)) (Frame, error) {
	arrows, err := renderArrows(state.Vectors, opts.Arrow)
	if err != nil {
		return Frame{}, err
	}

	frame := Frame{
		State:  state,
		Digest: state.Digest(),
		Group:  Group{Scale: state.Scale, Offset: state.Offset},
		Arrows: arrows,
	}

	for _, axis := range primitive.Axes {
		if !state.Grid.Enabled(axis) {
			continue
		}
		lines, err := grid(opts.Grid.Spec(axis))
		if err != nil {
			return Frame{}, fmt.Errorf("grid %s: %w", axis, err)
		}
		frame.Grids = append(frame.Grids, GridPlane{Axis: axis, Lines: lines})
	}

	return frame, nil
}

func renderArrows(v Vectors, style ArrowStyle) ([3]Arrow, error) {
	var out [3]Arrow
	for i, spec := range Derive(v.A, v.B) {
		spec = style.Apply(spec)
		prims, err := primitive.Arrow(spec)
		if err != nil {
			return out, fmt.Errorf("arrow %s: %w", spec.Name, err)
		}
		out[i] = Arrow{Name: spec.Name, Spec: spec, Shaft: prims.Shaft, Tip: prims.Tip}
	}
	return out, nil
}

func buildGrid(spec primitive.GridSpec) ([]primitive.Primitive, error) {
	it, err := primitive.Grid(spec)
	if err != nil {
		return nil, err
	}
	return it.Collect(), nil
}
