package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/scene"
)

func TestParse(t *testing.T) {
	t.Run("Valid input", func(t *testing.T) {
		v, err := Parse(Fields{X1: "1", Y1: " 2 ", Z1: "3", X2: "3e0", Y2: "-2.5", Z2: "1E-3"})
		require.NoError(t, err)
		require.Equal(t, scene.Vectors{
			A: geometry.Vec3(1, 2, 3),
			B: geometry.Vec3(3, -2.5, 0.001),
		}, v)
	})

	t.Run("Every bad field is reported", func(t *testing.T) {
		_, err := Parse(Fields{X1: "", Y1: "abc", Z1: "NaN", X2: "Inf", Y2: "1", Z2: "-infinity"})
		require.ErrorIs(t, err, ErrInvalidNumber)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		require.Len(t, verr.Fields, 5)
		require.Contains(t, verr.Fields, X1)
		require.Contains(t, verr.Fields, Z2)
		require.NotContains(t, verr.Fields, Y2)
	})

	t.Run("Overflow is rejected", func(t *testing.T) {
		_, err := ParseComponent("1e400")
		require.ErrorIs(t, err, ErrInvalidNumber)
	})
}

func TestParseVector(t *testing.T) {
	v, err := ParseVector("1, -2,3.5")
	require.NoError(t, err)
	require.Equal(t, geometry.Vec3(1, -2, 3.5), v)

	_, err = ParseVector("1,2")
	require.ErrorIs(t, err, ErrInvalidNumber)
	_, err = ParseVector("1,x,2")
	require.ErrorIs(t, err, ErrInvalidNumber)
}

func TestFieldsOfRoundTrip(t *testing.T) {
	v := scene.DefaultState().Vectors
	f := FieldsOf(v)
	require.Equal(t, Fields{X1: "1", Y1: "2", Z1: "3", X2: "3", Y2: "2", Z2: "1"}, f)

	back, err := Parse(f)
	require.NoError(t, err)
	require.Equal(t, v, back)
}
