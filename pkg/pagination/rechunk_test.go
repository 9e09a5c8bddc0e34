package pagination

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRechunk_Properties(t *testing.T) {
	for _, size := range []int{1, 2, 3, 7, 10} {
		for _, n := range []int{0, 1, 2, 9, 10, 11, 20, 199} {
			t.Run(fmt.Sprintf("size=%d/n=%d", size, n), func(t *testing.T) {
				source := make([]int, n)
				for i := range source {
					source[i] = i
				}

				chunks := slices.Collect(Rechunk(slices.Values(source), size))

				var flat []int
				for i, c := range chunks {
					require.NotEmpty(t, c, "no empty chunks")
					if i < len(chunks)-1 {
						assert.Len(t, c, size)
					} else {
						assert.LessOrEqual(t, len(c), size)
					}
					flat = append(flat, c...)
				}
				assert.Len(t, flat, n)
				if n > 0 {
					assert.Equal(t, source, flat)
				}
				assert.Len(t, chunks, (n+size-1)/size)
			})
		}
	}
}

func TestRechunk_EmptySourceYieldsNothing(t *testing.T) {
	var calls int
	for range Rechunk(slices.Values([]string(nil)), 4) {
		calls++
	}
	assert.Zero(t, calls)
}

func TestRechunk_ChunksAreIndependent(t *testing.T) {
	chunks := slices.Collect(Rechunk(slices.Values([]int{1, 2, 3, 4, 5}), 2))
	require.Len(t, chunks, 3)

	chunks[0][0] = 100
	assert.Equal(t, []int{3, 4}, chunks[1])
	assert.Equal(t, []int{5}, chunks[2])
}

func TestRechunk_StopsPullingWhenConsumerBreaks(t *testing.T) {
	pulled := 0
	source := func(yield func(int) bool) {
		for i := 0; i < 100; i++ {
			pulled++
			if !yield(i) {
				return
			}
		}
	}

	for chunk := range Rechunk(source, 3) {
		assert.Equal(t, []int{0, 1, 2}, chunk)
		break
	}
	assert.Equal(t, 3, pulled)
}

func TestRechunk_IndependentOfUpstreamBatching(t *testing.T) {
	// Upstream batches of 4, downstream chunks of 3.
	upstream := Rechunk(slices.Values([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}), 4)
	flatten := func(yield func(int) bool) {
		for batch := range upstream {
			for _, v := range batch {
				if !yield(v) {
					return
				}
			}
		}
	}

	chunks := slices.Collect(Rechunk(flatten, 3))
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {10}}, chunks)
}

func TestRechunk_InvalidSize(t *testing.T) {
	assert.Panics(t, func() { Rechunk(slices.Values([]int{1}), 0) })
}
