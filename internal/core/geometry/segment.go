package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Segment is a straight line between two points. Start and End may coincide.
type Segment struct {
	Start Point3
	End   Point3
}

// Seg builds a Segment.
func Seg(start, end Point3) Segment {
	return Segment{Start: start, End: end}
}

// Delta returns End - Start.
func (s Segment) Delta() Vector3 {
	return r3.Sub(s.End, s.Start)
}

// Length returns the distance between the endpoints.
func (s Segment) Length() float64 {
	return r3.Norm(s.Delta())
}

// Degenerate reports whether the endpoints coincide.
func (s Segment) Degenerate() bool {
	return s.Start == s.End
}

// Placement positions a Y-aligned primitive of height Length so that it
// covers a segment: centred on Center and rotated by Orientation.
type Placement struct {
	Center      Point3
	Orientation Orientation
	Length      float64
}

// Compute returns the placement for the segment start→end.
//
// A zero-length segment has no direction; it yields Length 0 and the
// identity orientation instead of an error so callers can still emit the
// (invisible) primitive.
func Compute(start, end Point3) Placement {
	center := Point3{
		X: (start.X + end.X) / 2,
		Y: (start.Y + end.Y) / 2,
		Z: (start.Z + end.Z) / 2,
	}

	direction := r3.Sub(end, start)
	length := r3.Norm(direction)
	if length == 0 {
		return Placement{Center: center, Orientation: Identity()}
	}

	return Placement{
		Center:      center,
		Orientation: alignUp(r3.Scale(1/length, direction)),
		Length:      length,
	}
}

// Place is Compute for a Segment value.
func (s Segment) Place() Placement {
	return Compute(s.Start, s.End)
}

// Axis returns the unit direction the placed primitive points along.
func (p Placement) Axis() Vector3 {
	return p.Orientation.Rotate(Up)
}

// Start reconstructs the segment start from the placement.
func (p Placement) Start() Point3 {
	return r3.Sub(p.Center, r3.Scale(p.Length/2, p.Axis()))
}

// End reconstructs the segment end from the placement.
func (p Placement) End() Point3 {
	return r3.Add(p.Center, r3.Scale(p.Length/2, p.Axis()))
}
