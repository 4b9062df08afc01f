package primitive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/vectorlab/internal/core/geometry"
)

func lineByKey(lines []Primitive, key string) (Primitive, bool) {
	for _, p := range lines {
		if p.Key == key {
			return p, true
		}
	}
	return Primitive{}, false
}

func TestGrid(t *testing.T) {
	for _, axis := range Axes {
		t.Run("Axis "+string(axis), func(t *testing.T) {
			it, err := Grid(DefaultGridSpec(axis))
			require.NoError(t, err)

			lines := it.Collect()
			require.Len(t, lines, 121)

			keys := make(map[string]struct{}, len(lines))
			for _, line := range lines {
				require.Equal(t, 10.0, line.Placement.Length)
				require.Equal(t, DefaultGridRadius, line.Radius)
				require.Equal(t, DefaultGridColor, line.Color)
				keys[line.Key] = struct{}{}

				axisDir := line.Placement.Axis()
				want := [3]float64{}
				want[axis.Index()] = 1
				require.InDelta(t, want[0], axisDir.X, 1e-9)
				require.InDelta(t, want[1], axisDir.Y, 1e-9)
				require.InDelta(t, want[2], axisDir.Z, 1e-9)
			}
			require.Len(t, keys, 121)
		})
	}

	t.Run("Lines follow the sweep table", func(t *testing.T) {
		cases := []struct {
			axis       Axis
			start, end geometry.Point3
		}{
			{AxisX, geometry.Vec3(0, 3, 7), geometry.Vec3(10, 3, 7)},
			{AxisY, geometry.Vec3(3, 0, 7), geometry.Vec3(3, 10, 7)},
			{AxisZ, geometry.Vec3(3, 7, 0), geometry.Vec3(3, 7, 10)},
		}
		for _, c := range cases {
			it, err := Grid(DefaultGridSpec(c.axis))
			require.NoError(t, err)

			line, ok := lineByKey(it.Collect(), string(c.axis)+"-3-7")
			require.True(t, ok)
			require.Equal(t, geometry.Compute(c.start, c.end), line.Placement)
		}
	})

	t.Run("Lines are line segment primitives", func(t *testing.T) {
		spec := DefaultGridSpec(AxisX)
		spec.Extent = 2
		it, err := Grid(spec)
		require.NoError(t, err)

		line, ok := lineByKey(it.Collect(), "x-1-2")
		require.True(t, ok)

		want, err := Segment(geometry.Seg(geometry.Vec3(0, 1, 2), geometry.Vec3(2, 1, 2)), spec.Radius, spec.Color)
		require.NoError(t, err)
		want.Key = "x-1-2"
		require.Equal(t, want, line)
	})

	t.Run("Deterministic order", func(t *testing.T) {
		it, err := Grid(DefaultGridSpec(AxisZ))
		require.NoError(t, err)
		lines := it.Collect()
		require.Equal(t, "z-0-0", lines[0].Key)
		require.Equal(t, "z-10-10", lines[len(lines)-1].Key)
		require.Equal(t, it.Collect(), it.Collect())
	})

	t.Run("Custom extent", func(t *testing.T) {
		spec := DefaultGridSpec(AxisY)
		spec.Extent = 3
		it, err := Grid(spec)
		require.NoError(t, err)
		lines := it.Collect()
		require.Len(t, lines, 16)
		for _, p := range lines {
			require.Equal(t, 3.0, p.Placement.Length)
		}
	})

	t.Run("Invalid axis", func(t *testing.T) {
		_, err := Grid(DefaultGridSpec(Axis("w")))
		require.ErrorIs(t, err, ErrInvalidAxis)
	})

	t.Run("Invalid extent and radius", func(t *testing.T) {
		spec := DefaultGridSpec(AxisX)
		spec.Extent = 0
		_, err := Grid(spec)
		require.ErrorIs(t, err, ErrInvalidGeometryParameter)

		spec = DefaultGridSpec(AxisX)
		spec.Radius = 0
		_, err = Grid(spec)
		require.ErrorIs(t, err, ErrInvalidGeometryParameter)
	})
}

func TestParseAxis(t *testing.T) {
	a, err := ParseAxis(" Y ")
	require.NoError(t, err)
	require.Equal(t, AxisY, a)

	_, err = ParseAxis("xy")
	require.ErrorIs(t, err, ErrInvalidAxis)
	require.Equal(t, -1, Axis("q").Index())
}
