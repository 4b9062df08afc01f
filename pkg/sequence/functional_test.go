package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIterator(t *testing.T) {
	t.Run("Collect preserves order", func(t *testing.T) {
		require.Equal(t, []int{1, 2, 3}, From([]int{1, 2, 3}).Collect())
	})

	t.Run("Collect on empty", func(t *testing.T) {
		require.Empty(t, From([]string{}).Collect())
	})

	t.Run("Range stops the source early", func(t *testing.T) {
		produced := 0
		it := New(func(yield func(int) bool) {
			for i := 0; ; i++ {
				produced++
				if !yield(i) {
					return
				}
			}
		})
		var got []int
		for v := range it.Seq() {
			got = append(got, v)
			if len(got) == 3 {
				break
			}
		}
		require.Equal(t, []int{0, 1, 2}, got)
		require.Equal(t, 3, produced)
	})

	t.Run("Pull", func(t *testing.T) {
		next, stop := From([]int{9}).Pull()
		defer stop()
		v, ok := next()
		require.True(t, ok)
		require.Equal(t, 9, v)
		_, ok = next()
		require.False(t, ok)
	})
}

func TestGrid(t *testing.T) {
	var pairs [][2]int
	for i, j := range Grid(2) {
		pairs = append(pairs, [2]int{i, j})
	}
	require.Len(t, pairs, 9)
	require.Equal(t, [2]int{0, 0}, pairs[0])
	require.Equal(t, [2]int{0, 1}, pairs[1])
	require.Equal(t, [2]int{2, 2}, pairs[8])
}
