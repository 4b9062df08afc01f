package state

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/vectorlab/internal/core/events/bus"
	"github.com/zeusync/vectorlab/internal/core/geometry"
	"github.com/zeusync/vectorlab/internal/core/primitive"
	"github.com/zeusync/vectorlab/internal/core/scene"
)

func setScale(scale float64) func(scene.State) (scene.State, error) {
	return func(s scene.State) (scene.State, error) {
		return s.WithScale(scale, scene.DefaultLimits())
	}
}

func TestStoreApply(t *testing.T) {
	s := NewStore(scene.DefaultState())
	_, v := s.Get()
	require.EqualValues(t, 1, v)

	t.Run("Accepted change bumps the version", func(t *testing.T) {
		c, err := s.Apply("test", setScale(0.05))
		require.NoError(t, err)
		require.True(t, c.Changed())
		require.EqualValues(t, 2, c.Version)
		require.Equal(t, 0.05, c.Current.Scale)
		require.Equal(t, 0.1, c.Previous.Scale)

		got, v := s.Get()
		require.Equal(t, c.Current, got)
		require.EqualValues(t, 2, v)
	})

	t.Run("Equal state is a no-op", func(t *testing.T) {
		c, err := s.Apply("test", setScale(0.05))
		require.NoError(t, err)
		require.False(t, c.Changed())
		require.EqualValues(t, 2, c.Version)
		require.EqualValues(t, 2, s.Version())
	})

	t.Run("Rejected transition leaves the store untouched", func(t *testing.T) {
		before, _ := s.Get()
		_, err := s.Apply("test", func(st scene.State) (scene.State, error) {
			return st.WithGrid("w", true)
		})
		require.ErrorIs(t, err, primitive.ErrInvalidAxis)

		after, v := s.Get()
		require.Equal(t, before, after)
		require.EqualValues(t, 2, v)
	})
}

func TestStorePublishesChanges(t *testing.T) {
	b := bus.New()
	s := NewStore(scene.DefaultState(), WithBus(b, "lobby"))

	var got []Change
	_, err := b.SubscribeTopic("lobby", EventChanged, func(e bus.Event) error {
		got = append(got, e.Data().(Change))
		require.Equal(t, "alice", e.Source())
		return nil
	})
	require.NoError(t, err)

	_, err = s.Apply("alice", func(st scene.State) (scene.State, error) {
		return st.WithVectors(scene.Vectors{A: geometry.Vec3(1, 0, 0), B: geometry.Vec3(0, 1, 0)})
	})
	require.NoError(t, err)
	_, err = s.Apply("alice", func(st scene.State) (scene.State, error) { return st, nil })
	require.NoError(t, err)

	require.Len(t, got, 1)
	require.EqualValues(t, 2, got[0].Version)
	require.Equal(t, geometry.Vec3(1, 1, 0), got[0].Current.Vectors.Sum())
}

func TestStoreReturnsHandlerErrors(t *testing.T) {
	b := bus.New()
	s := NewStore(scene.DefaultState(), WithBus(b, ""))
	boom := errors.New("boom")
	_, _ = b.Subscribe(EventChanged, func(bus.Event) error { return boom })

	c, err := s.Apply("x", setScale(0.02))
	require.ErrorIs(t, err, boom)
	require.EqualValues(t, 2, c.Version, "change is committed even if a listener fails")
}

func TestStoreConcurrentApply(t *testing.T) {
	s := NewStore(scene.DefaultState())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Apply("x", func(st scene.State) (scene.State, error) {
				return st.WithOffsetNudge(primitive.AxisX, 1, scene.DefaultLimits())
			})
		}()
	}
	wg.Wait()

	st, v := s.Get()
	require.Equal(t, 50.0, st.Offset.X)
	require.EqualValues(t, 51, v)
}
