package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Schromeo/VecDBMVP/index/hnsw"
)

func results(slots ...int) []hnsw.SearchResult {
	out := make([]hnsw.SearchResult, len(slots))
	for i, s := range slots {
		out[i] = hnsw.SearchResult{Slot: s, Distance: float32(i)}
	}
	return out
}

func TestRecallAtK(t *testing.T) {
	truth := results(1, 2, 3, 4)

	assert.Equal(t, 1.0, RecallAtK(truth, results(1, 2, 3, 4), 4))
	assert.Equal(t, 0.5, RecallAtK(truth, results(1, 2, 9, 8), 4))
	assert.Equal(t, 0.0, RecallAtK(truth, results(7, 8, 9, 6), 4))

	// k = 0 and empty truth are degenerate.
	assert.Equal(t, 0.0, RecallAtK(truth, truth, 0))
	assert.Equal(t, 0.0, RecallAtK(nil, results(1), 5))

	// Truth smaller than k normalizes by the smaller count.
	assert.Equal(t, 1.0, RecallAtK(results(1, 2), results(1, 2, 3), 5))
}

func TestEvaluate(t *testing.T) {
	queries := [][]float32{{0}, {1}, {2}}

	exact := func(q []float32, k int) []hnsw.SearchResult { return results(1, 2, 3) }
	perfect := func(q []float32, k int) []hnsw.SearchResult { return results(1, 2, 3) }
	half := func(q []float32, k int) []hnsw.SearchResult { return results(1, 8, 9) }

	r := Evaluate(queries, 3, exact, perfect)
	assert.Equal(t, 1.0, r.RecallAtK)
	assert.GreaterOrEqual(t, r.AvgLatencyMS, 0.0)

	r = Evaluate(queries, 3, exact, half)
	assert.InDelta(t, 1.0/3.0, r.RecallAtK, 1e-9)

	r = Evaluate(nil, 3, exact, perfect)
	assert.Equal(t, 0.0, r.RecallAtK)
}
