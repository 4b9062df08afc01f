package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zeusync/vectorlab/pkg/sequence"
)

func TestConcurrent(t *testing.T) {
	var sum atomic.Int64
	err := Concurrent(sequence.From([]int{1, 2, 3, 4}), func(v int) error {
		sum.Add(int64(v))
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, 10, sum.Load())

	boom := errors.New("boom")
	err = Concurrent(sequence.From([]int{1, 2}), func(v int) error {
		if v == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}

func TestForEachLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	err := ForEach(context.Background(), sequence.From(make([]int, 20)), 3, func(context.Context, int) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		inFlight.Add(-1)
		return nil
	})
	require.NoError(t, err)
	require.LessOrEqual(t, peak.Load(), int32(3))
}

func TestForEachCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ForEach(ctx, sequence.From([]int{1, 2, 3}), 0, func(context.Context, int) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
