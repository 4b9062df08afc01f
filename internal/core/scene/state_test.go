package scene

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/primitive"
)

func TestStateTransitions(t *testing.T) {
	limits := DefaultLimits()

	t.Run("WithVectors rejects non-finite input", func(t *testing.T) {
		s := DefaultState()
		_, err := s.WithVectors(Vectors{A: geometry.Vec3(math.NaN(), 0, 0)})
		require.ErrorIs(t, err, ErrNonFiniteVector)
		_, err = s.WithVectors(Vectors{B: geometry.Vec3(0, math.Inf(-1), 0)})
		require.ErrorIs(t, err, ErrNonFiniteVector)

		next, err := s.WithVectors(Vectors{A: geometry.Vec3(1, 0, 0), B: geometry.Vec3(0, 1, 0)})
		require.NoError(t, err)
		require.Equal(t, geometry.Vec3(1, 1, 0), next.Vectors.Sum())
		require.Equal(t, DefaultState(), s, "transitions must not mutate the receiver")
	})

	t.Run("WithGrid", func(t *testing.T) {
		s, err := DefaultState().WithGrid(primitive.AxisZ, false)
		require.NoError(t, err)
		require.Equal(t, GridToggles{X: true, Y: true}, s.Grid)

		_, err = s.WithGrid("w", true)
		require.ErrorIs(t, err, primitive.ErrInvalidAxis)
	})

	t.Run("WithOffsetNudge", func(t *testing.T) {
		s := DefaultState()
		var err error
		for i := 0; i < 3; i++ {
			s, err = s.WithOffsetNudge(primitive.AxisX, 0.1, limits)
			require.NoError(t, err)
		}
		s, err = s.WithOffsetNudge(primitive.AxisZ, -1, limits)
		require.NoError(t, err)
		require.Equal(t, geometry.Vec3(0.3, 0, -1), s.Offset)

		_, err = s.WithOffsetNudge(primitive.AxisY, 0.5, limits)
		require.ErrorIs(t, err, ErrInvalidOffsetStep)
		_, err = s.WithOffsetNudge("q", 1, limits)
		require.ErrorIs(t, err, primitive.ErrInvalidAxis)
	})

	t.Run("WithScale clamps and snaps", func(t *testing.T) {
		cases := []struct {
			in, want float64
		}{
			{0.05, 0.05},
			{0.0512, 0.05},
			{0.0538, 0.055},
			{5, 0.1},
			{0, 0.01},
			{-3, 0.01},
		}
		for _, c := range cases {
			s, err := DefaultState().WithScale(c.in, limits)
			require.NoError(t, err)
			require.InDelta(t, c.want, s.Scale, 1e-12, "scale %v", c.in)
		}

		_, err := DefaultState().WithScale(math.NaN(), limits)
		require.ErrorIs(t, err, ErrInvalidScale)
	})
}

func TestDigest(t *testing.T) {
	a := DefaultState()
	b := DefaultState()
	require.Equal(t, a.Digest(), b.Digest())

	b.Grid.Y = false
	require.NotEqual(t, a.Digest(), b.Digest())

	c := DefaultState()
	c.Scale = 0.095
	require.NotEqual(t, a.Digest(), c.Digest())
}

func TestLimitsValidate(t *testing.T) {
	require.NoError(t, DefaultLimits().Validate())

	l := DefaultLimits()
	l.OffsetSteps = nil
	require.Error(t, l.Validate())

	l = DefaultLimits()
	l.MaxScale = 0.001
	require.Error(t, l.Validate())
}
