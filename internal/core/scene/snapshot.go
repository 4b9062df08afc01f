package scene

import (
	"fmt"

	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/primitive"
)

// Snapshot is the wire form of a Frame. Positions are [x, y, z], orientations
// [x, y, z, w] quaternions, colours [r, g, b].
type Snapshot struct {
	Version uint64          `json:"version" yaml:"version"`
	Digest  string          `json:"digest" yaml:"digest"`
	Vectors VectorsSnapshot `json:"vectors" yaml:"vectors"`
	Group   GroupSnapshot   `json:"group" yaml:"group"`
	Grid    GridToggles     `json:"grid" yaml:"grid"`
	Arrows  []ArrowSnapshot `json:"arrows" yaml:"arrows"`
	Grids   []GridSnapshot  `json:"grids" yaml:"grids"`
	Counts  map[string]int  `json:"counts,omitempty" yaml:"counts,omitempty"`
}

type VectorsSnapshot struct {
	A   [3]float64 `json:"a" yaml:"a"`
	B   [3]float64 `json:"b" yaml:"b"`
	Sum [3]float64 `json:"sum" yaml:"sum"`
}

type GroupSnapshot struct {
	Scale  float64    `json:"scale" yaml:"scale"`
	Offset [3]float64 `json:"offset" yaml:"offset"`
}

type ArrowSnapshot struct {
	Name  string            `json:"name" yaml:"name"`
	Start [3]float64        `json:"start" yaml:"start"`
	End   [3]float64        `json:"end" yaml:"end"`
	Shaft PrimitiveSnapshot `json:"shaft" yaml:"shaft"`
	Tip   PrimitiveSnapshot `json:"tip" yaml:"tip"`
}

type GridSnapshot struct {
	Axis  string              `json:"axis" yaml:"axis"`
	Lines []PrimitiveSnapshot `json:"lines" yaml:"lines"`
}

type PrimitiveSnapshot struct {
	Key        string     `json:"key" yaml:"key"`
	Shape      string     `json:"shape" yaml:"shape"`
	Position   [3]float64 `json:"position" yaml:"position,flow"`
	Quaternion [4]float64 `json:"quaternion" yaml:"quaternion,flow"`
	Length     float64    `json:"length" yaml:"length"`
	Radius     float64    `json:"radius" yaml:"radius"`
	Color      [3]float64 `json:"color" yaml:"color,flow"`
}

// NewSnapshot converts f. version is the state store version the frame was
// rendered from; 0 for stateless renders.
func NewSnapshot(f Frame, version uint64) Snapshot {
	s := Snapshot{
		Version: version,
		Digest:  fmt.Sprintf("%016x", f.Digest),
		Vectors: VectorsSnapshot{
			A:   geometry.Components(f.State.Vectors.A),
			B:   geometry.Components(f.State.Vectors.B),
			Sum: geometry.Components(f.State.Vectors.Sum()),
		},
		Group: GroupSnapshot{
			Scale:  f.Group.Scale,
			Offset: geometry.Components(f.Group.Offset),
		},
		Grid:   f.State.Grid,
		Arrows: make([]ArrowSnapshot, 0, len(f.Arrows)),
		Grids:  make([]GridSnapshot, 0, len(f.Grids)),
	}

	for _, a := range f.Arrows {
		s.Arrows = append(s.Arrows, ArrowSnapshot{
			Name:  a.Name,
			Start: geometry.Components(a.Spec.Start),
			End:   geometry.Components(a.Spec.End),
			Shaft: primitiveSnapshot(a.Shaft),
			Tip:   primitiveSnapshot(a.Tip),
		})
	}
	for _, g := range f.Grids {
		lines := make([]PrimitiveSnapshot, len(g.Lines))
		for i, l := range g.Lines {
			lines[i] = primitiveSnapshot(l)
		}
		s.Grids = append(s.Grids, GridSnapshot{Axis: string(g.Axis), Lines: lines})
	}

	s.Counts = map[string]int{"arrows": len(f.Arrows), "primitives": f.Primitives()}
	return s
}

func primitiveSnapshot(p primitive.Primitive) PrimitiveSnapshot {
	return PrimitiveSnapshot{
		Key:        p.Key,
		Shape:      p.Shape.String(),
		Position:   geometry.Components(p.Placement.Center),
		Quaternion: p.Placement.Orientation.Components(),
		Length:     p.Placement.Length,
		Radius:     p.Radius,
		Color:      p.Color.Components(),
	}
}
