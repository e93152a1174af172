package searcher

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinHeapOrder(t *testing.T) {
	pq := NewMin(4)
	for _, d := range []float32{5, 1, 3, 2, 4} {
		pq.PushItem(PriorityQueueItem{Slot: int(d), Distance: d})
	}

	var got []float32
	for pq.Len() > 0 {
		item, ok := pq.PopItem()
		require.True(t, ok)
		got = append(got, item.Distance)
	}
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, got)
}

func TestMaxHeapOrder(t *testing.T) {
	pq := NewMax(4)
	for _, d := range []float32{5, 1, 3, 2, 4} {
		pq.PushItem(PriorityQueueItem{Slot: int(d), Distance: d})
	}

	var got []float32
	for pq.Len() > 0 {
		item, _ := pq.PopItem()
		got = append(got, item.Distance)
	}
	assert.Equal(t, []float32{5, 4, 3, 2, 1}, got)
}

func TestPushItemBounded(t *testing.T) {
	pq := NewMax(3)
	rng := rand.New(rand.NewSource(42))

	var all []float32
	for i := 0; i < 100; i++ {
		d := rng.Float32()
		all = append(all, d)
		pq.PushItemBounded(PriorityQueueItem{Slot: i, Distance: d}, 3)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	got := pq.DrainAscending()
	require.Len(t, got, 3)
	for i, item := range got {
		assert.Equal(t, all[i], item.Distance)
	}
}

func TestDrainAscending(t *testing.T) {
	pq := NewMax(4)
	for _, d := range []float32{0.9, 0.1, 0.5} {
		pq.PushItem(PriorityQueueItem{Distance: d})
	}

	got := pq.DrainAscending()
	require.Len(t, got, 3)
	assert.Equal(t, float32(0.1), got[0].Distance)
	assert.Equal(t, float32(0.5), got[1].Distance)
	assert.Equal(t, float32(0.9), got[2].Distance)
	assert.Equal(t, 0, pq.Len())
}

func TestEmptyQueue(t *testing.T) {
	pq := NewMin(0)
	_, ok := pq.PopItem()
	assert.False(t, ok)
	_, ok = pq.TopItem()
	assert.False(t, ok)
	assert.Empty(t, pq.DrainAscending())
}

func TestReset(t *testing.T) {
	pq := NewMax(2)
	pq.PushItem(PriorityQueueItem{Distance: 1})
	pq.Reset()
	assert.Equal(t, 0, pq.Len())
	pq.PushItem(PriorityQueueItem{Distance: 2})
	top, ok := pq.TopItem()
	require.True(t, ok)
	assert.Equal(t, float32(2), top.Distance)
}
