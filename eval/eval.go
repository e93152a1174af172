// Package eval measures approximate search quality against a ground-truth
// oracle.
package eval

import (
	"time"

	"github.com/Schromeo/VecDBMVP/index/hnsw"
)

// SearchFn answers a query with its top-k results sorted by distance.
type SearchFn func(query []float32, k int) []hnsw.SearchResult

// Report aggregates quality and latency over a query set.
type Report struct {
	RecallAtK    float64
	AvgLatencyMS float64
}

// RecallAtK returns the fraction of the truth top-k found in the approx
// top-k. When the truth holds fewer than k results, recall normalizes by
// that smaller count so small datasets are not penalized.
func RecallAtK(truth, approx []hnsw.SearchResult, k int) float64 {
	if k == 0 {
		return 0
	}

	kt := min(k, len(truth))
	ka := min(k, len(approx))
	if kt == 0 {
		return 0
	}

	truthSet := make(map[int]struct{}, kt)
	for i := 0; i < kt; i++ {
		truthSet[truth[i].Slot] = struct{}{}
	}

	hit := 0
	for i := 0; i < ka; i++ {
		if _, ok := truthSet[approx[i].Slot]; ok {
			hit++
		}
	}
	return float64(hit) / float64(kt)
}

// Evaluate runs every query through both search functions, timing only the
// approximate side, and averages recall and latency.
func Evaluate(queries [][]float32, k int, truth, approx SearchFn) Report {
	var totalRecall, totalMS float64

	for _, q := range queries {
		gt := truth(q, k)

		t0 := time.Now()
		ap := approx(q, k)
		totalMS += float64(time.Since(t0).Nanoseconds()) / 1e6

		totalRecall += RecallAtK(gt, ap, k)
	}

	var r Report
	if len(queries) > 0 {
		r.RecallAtK = totalRecall / float64(len(queries))
		r.AvgLatencyMS = totalMS / float64(len(queries))
	}
	return r
}
