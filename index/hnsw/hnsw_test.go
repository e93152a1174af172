package hnsw

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schromeo/VecDBMVP/distance"
	"github.com/Schromeo/VecDBMVP/vectorstore"
)

func newStore(t *testing.T, dim int) *vectorstore.Store {
	t.Helper()
	s, err := vectorstore.New(dim)
	require.NoError(t, err)
	return s
}

func fillRandom(t *testing.T, s *vectorstore.Store, n, dim int, seed int64) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		vec := make([]float32, dim)
		for d := range vec {
			vec[d] = rng.Float32()*2 - 1
		}
		_, err := s.Upsert(fmt.Sprintf("id_%d", i), vec, nil)
		require.NoError(t, err)
	}
}

func buildGraph(s *vectorstore.Store, metric distance.Metric, params Params) *HNSW {
	h := New(s, metric, params)
	for i := 0; i < s.Size(); i++ {
		if s.IsAlive(i) {
			h.Insert(i)
		}
	}
	return h
}

func bruteTopK(s *vectorstore.Store, metric distance.Metric, query []float32, k int) []SearchResult {
	var all []SearchResult
	for i := 0; i < s.Size(); i++ {
		v := s.Vector(i)
		if v == nil {
			continue
		}
		all = append(all, SearchResult{Slot: i, Distance: distance.Distance(metric, query, v)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })
	if len(all) > k {
		all = all[:k]
	}
	return all
}

func TestEmptyGraphSearch(t *testing.T) {
	s := newStore(t, 4)
	h := New(s, distance.MetricL2, DefaultParams)

	res, err := h.Search([]float32{1, 0, 0, 0}, 5, 50)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.True(t, h.Empty())
	assert.Equal(t, -1, h.MaxLevel())
}

func TestSearchDimensionMismatch(t *testing.T) {
	s := newStore(t, 4)
	fillRandom(t, s, 10, 4, 1)
	h := buildGraph(s, distance.MetricL2, DefaultParams)

	_, err := h.Search([]float32{1, 2}, 3, 50)
	var dm *ErrDimensionMismatch
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 4, dm.Expected)
	assert.Equal(t, 2, dm.Actual)
}

func TestSearchZeroK(t *testing.T) {
	s := newStore(t, 4)
	fillRandom(t, s, 10, 4, 1)
	h := buildGraph(s, distance.MetricL2, DefaultParams)

	res, err := h.Search([]float32{0, 0, 0, 0}, 0, 50)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestExactOnTinySet(t *testing.T) {
	s := newStore(t, 2)
	for i, v := range [][]float32{{0, 0}, {1, 0}, {0, 1}} {
		_, err := s.Upsert(fmt.Sprintf("p%d", i), v, nil)
		require.NoError(t, err)
	}
	h := buildGraph(s, distance.MetricL2, DefaultParams)

	res, err := h.Search([]float32{0.9, 0.1}, 2, 50)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, 1, res[0].Slot)
	assert.InDelta(t, float32(0.02), res[0].Distance, 1e-6)
}

func TestDeterministicConstruction(t *testing.T) {
	s := newStore(t, 8)
	fillRandom(t, s, 300, 8, 7)

	h1 := buildGraph(s, distance.MetricL2, DefaultParams)
	h2 := buildGraph(s, distance.MetricL2, DefaultParams)

	ex1 := h1.ExportGraph()
	ex2 := h2.ExportGraph()

	assert.Equal(t, ex1.EntryPoint, ex2.EntryPoint)
	assert.Equal(t, ex1.MaxLevel, ex2.MaxLevel)
	assert.Equal(t, ex1.Nodes, ex2.Nodes)
}

func TestLevelSamplingSeedControl(t *testing.T) {
	s := newStore(t, 8)
	fillRandom(t, s, 300, 8, 7)

	a := DefaultParams
	b := DefaultParams
	b.Seed = 999

	exA := buildGraph(s, distance.MetricL2, a).ExportGraph()
	exB := buildGraph(s, distance.MetricL2, b).ExportGraph()

	assert.NotEqual(t, exA.Nodes, exB.Nodes)
}

func TestGraphInvariants(t *testing.T) {
	s := newStore(t, 8)
	fillRandom(t, s, 500, 8, 11)

	for _, diverse := range []bool{true, false} {
		params := DefaultParams
		params.UseDiversity = diverse

		h := buildGraph(s, distance.MetricL2, params)
		ex := h.ExportGraph()

		require.True(t, ex.HasEntry)
		// Entry point lives at the top level.
		assert.Equal(t, ex.MaxLevel, ex.Nodes[ex.EntryPoint].Level)

		observedMax := -1
		for i, n := range ex.Nodes {
			if n.Level > observedMax {
				observedMax = n.Level
			}
			for l, nbrs := range n.Links {
				degCap := params.M
				if l == 0 {
					degCap = params.M0
				}
				assert.LessOrEqual(t, len(nbrs), degCap, "node %d level %d", i, l)
				for _, nb := range nbrs {
					assert.NotEqual(t, i, nb, "self-loop at node %d", i)
					// Neighbors at level l have level >= l.
					assert.GreaterOrEqual(t, ex.Nodes[nb].Level, l)
				}
			}
		}
		assert.Equal(t, observedMax, ex.MaxLevel)
	}
}

func TestRecallAgainstBruteforce(t *testing.T) {
	const (
		n       = 2000
		dim     = 16
		queries = 30
		k       = 10
		ef      = 200
	)

	s := newStore(t, dim)
	fillRandom(t, s, n, dim, 42)
	h := buildGraph(s, distance.MetricL2, DefaultParams)

	rng := rand.New(rand.NewSource(77))
	var hits, total int
	for q := 0; q < queries; q++ {
		query := make([]float32, dim)
		for d := range query {
			query[d] = rng.Float32()*2 - 1
		}

		truth := bruteTopK(s, distance.MetricL2, query, k)
		truthSet := make(map[int]struct{}, len(truth))
		for _, r := range truth {
			truthSet[r.Slot] = struct{}{}
		}

		approx, err := h.Search(query, k, ef)
		require.NoError(t, err)
		for _, r := range approx {
			if _, ok := truthSet[r.Slot]; ok {
				hits++
			}
		}
		total += len(truth)
	}

	recall := float64(hits) / float64(total)
	assert.Greater(t, recall, 0.90, "recall@%d = %f", k, recall)
}

func TestTombstonesSkippedDuringSearch(t *testing.T) {
	s := newStore(t, 4)
	fillRandom(t, s, 100, 4, 3)
	h := buildGraph(s, distance.MetricL2, DefaultParams)

	// Tombstone the true nearest neighbor of the query; the graph edges stay
	// in place but search must never return the dead slot.
	query := []float32{0.1, 0.2, 0.3, 0.4}
	top := bruteTopK(s, distance.MetricL2, query, 1)
	require.Len(t, top, 1)
	require.True(t, s.Remove(s.IDAt(top[0].Slot)))

	res, err := h.Search(query, 10, 100)
	require.NoError(t, err)
	for _, r := range res {
		assert.NotEqual(t, top[0].Slot, r.Slot)
		assert.True(t, s.IsAlive(r.Slot))
	}
}

func TestCosineMetricSearch(t *testing.T) {
	s := newStore(t, 2)
	_, _ = s.Upsert("east", []float32{5, 0}, nil)
	_, _ = s.Upsert("north", []float32{0, 3}, nil)
	_, _ = s.Upsert("diag", []float32{1, 1}, nil)

	h := buildGraph(s, distance.MetricCosine, DefaultParams)

	res, err := h.Search([]float32{10, 0.1}, 1, 50)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "east", s.IDAt(res[0].Slot))
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newStore(t, 8)
	fillRandom(t, s, 400, 8, 5)
	h := buildGraph(s, distance.MetricL2, DefaultParams)

	ex := h.ExportGraph()
	require.Len(t, ex.Nodes, s.Size())

	h2 := New(s, distance.MetricL2, DefaultParams)
	require.NoError(t, h2.ImportGraph(ex))

	rng := rand.New(rand.NewSource(13))
	for q := 0; q < 10; q++ {
		query := make([]float32, 8)
		for d := range query {
			query[d] = rng.Float32()*2 - 1
		}
		r1, err := h.Search(query, 10, 100)
		require.NoError(t, err)
		r2, err := h2.Search(query, 10, 100)
		require.NoError(t, err)
		assert.Equal(t, r1, r2)
	}
}

func TestImportMismatch(t *testing.T) {
	s := newStore(t, 4)
	fillRandom(t, s, 10, 4, 1)
	h := New(s, distance.MetricL2, DefaultParams)

	var nm *ErrSnapshotMismatch
	err := h.ImportGraph(Export{Nodes: make([]ExportNode, 5)})
	require.ErrorAs(t, err, &nm)

	// Link list count must equal level+1.
	ex := Export{Nodes: make([]ExportNode, 10)}
	for i := range ex.Nodes {
		ex.Nodes[i].Level = -1
	}
	ex.Nodes[3] = ExportNode{Level: 1, Links: [][]int{{0}}}
	var lm *ErrLinkListMismatch
	err = h.ImportGraph(ex)
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, 3, lm.Slot)
}

func TestStats(t *testing.T) {
	s := newStore(t, 4)
	fillRandom(t, s, 50, 4, 9)
	h := buildGraph(s, distance.MetricL2, DefaultParams)

	st := h.Stats()
	assert.Equal(t, 50, st.Nodes)
	assert.True(t, st.HasEntry)
	assert.Greater(t, st.Edges, 0)
	require.NotEmpty(t, st.LevelCount)
	assert.Equal(t, 50, st.LevelCount[0])
}
