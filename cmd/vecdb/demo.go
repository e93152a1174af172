package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	vecdb "github.com/Schromeo/VecDBMVP"
	"github.com/Schromeo/VecDBMVP/distance"
	"github.com/Schromeo/VecDBMVP/eval"
	"github.com/Schromeo/VecDBMVP/index/hnsw"
	"github.com/Schromeo/VecDBMVP/vectorstore"
)

func newDemoCmd() *cobra.Command {
	var (
		n       int
		dim     int
		queries int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run built-in sanity checks, a recall benchmark, and a persistence round-trip",
		RunE: func(cmd *cobra.Command, args []string) error {
			demoDistance()
			demoStore()
			demoRecall(n, dim, queries)
			return demoPersistence()
		},
	}

	cmd.Flags().IntVar(&n, "n", 20000, "benchmark dataset size")
	cmd.Flags().IntVar(&dim, "dim", 32, "benchmark vector dimension")
	cmd.Flags().IntVar(&queries, "queries", 100, "benchmark query count")
	return cmd
}

func demoDistance() {
	a := []float32{1, 0}
	b := []float32{2, 0}
	c := []float32{0, 1}

	fmt.Println("Distance sanity checks:")
	fmt.Printf("L2^2(a,b) = %.6f  (expected 1)\n", distance.Distance(distance.MetricL2, a, b))
	fmt.Printf("L2^2(a,c) = %.6f  (expected 2)\n", distance.Distance(distance.MetricL2, a, c))
	fmt.Printf("cosDist(a,b) = %.6f  (expected 0, same direction)\n", distance.Distance(distance.MetricCosine, a, b))
	fmt.Printf("cosDist(a,c) = %.6f  (expected 1, orthogonal)\n", distance.Distance(distance.MetricCosine, a, c))

	x := []float32{3, 4}
	distance.NormalizeInPlace(x)
	fmt.Printf("normalize([3,4]) = %s  (expected [0.6,0.8])\n", printVec(x))
}

func demoStore() {
	store, _ := vectorstore.New(2)

	fmt.Println("\nVector store sanity checks:")
	i1, _ := store.Upsert("u1", []float32{1, 2}, nil)
	fmt.Printf("upsert u1 -> slot %d\n", i1)
	i2, _ := store.Upsert("u2", []float32{3, 4}, nil)
	fmt.Printf("upsert u2 -> slot %d\n", i2)
	fmt.Printf("store.size = %d (expected 2)\n", store.Size())

	ok := store.Remove("u1")
	fmt.Printf("remove(u1) = %t (expected true)\n", ok)
	fmt.Printf("contains(u1) = %t (expected false)\n", store.Contains("u1"))
}

func randVec(rng *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = rng.Float32()*2 - 1
	}
	return v
}

func demoRecall(n, dim, queries int) {
	const k = 10

	rng := rand.New(rand.NewSource(123))

	store, _ := vectorstore.New(dim)
	for i := 0; i < n; i++ {
		_, _ = store.Upsert(fmt.Sprintf("id_%d", i), randVec(rng, dim), nil)
	}

	qs := make([][]float32, queries)
	for i := range qs {
		qs[i] = randVec(rng, dim)
	}

	truth := func(q []float32, k int) []hnsw.SearchResult {
		return bruteTopK(store, q, k)
	}

	fmt.Printf("\nRecall benchmark (truth=bruteforce, approx=HNSW): N=%d dim=%d queries=%d k=%d\n", n, dim, queries, k)
	fmt.Printf("%-12s %-12s %-12s %-16s\n", "diversity", "ef_search", "recall@k", "avg_latency_ms")

	for _, diversity := range []bool{false, true} {
		params := hnsw.DefaultParams
		params.UseDiversity = diversity

		graph := hnsw.New(store, distance.MetricL2, params)
		for i := 0; i < store.Size(); i++ {
			if store.IsAlive(i) {
				graph.Insert(i)
			}
		}

		for _, ef := range []int{10, 20, 50, 100, 200} {
			approx := func(q []float32, k int) []hnsw.SearchResult {
				res, _ := graph.Search(q, k, ef)
				return res
			}
			report := eval.Evaluate(qs, k, truth, approx)
			fmt.Printf("%-12t %-12d %-12.6f %-16.6f\n", diversity, ef, report.RecallAtK, report.AvgLatencyMS)
		}
	}
}

func bruteTopK(store *vectorstore.Store, q []float32, k int) []hnsw.SearchResult {
	type hit struct {
		slot int
		d    float32
	}
	var best []hit
	for i := 0; i < store.Size(); i++ {
		v := store.Vector(i)
		if v == nil {
			continue
		}
		d := distance.Distance(distance.MetricL2, q, v)
		best = append(best, hit{i, d})
	}
	sort.Slice(best, func(i, j int) bool { return best[i].d < best[j].d })
	if len(best) > k {
		best = best[:k]
	}
	out := make([]hnsw.SearchResult, len(best))
	for i, h := range best {
		out[i] = hnsw.SearchResult{Slot: h.slot, Distance: h.d}
	}
	return out
}

func demoPersistence() error {
	fmt.Println("\nPersistence demo:")

	dir := filepath.Join("data", "demo_collection")
	_ = os.RemoveAll(dir)

	col, err := vecdb.Create(dir, 4)
	if err != nil {
		return err
	}

	_, _ = col.Upsert("u1", []float32{1, 0, 0, 0})
	_, _ = col.Upsert("u2", []float32{0, 1, 0, 0})
	_, _ = col.Upsert("u3", []float32{0, 0, 1, 0})
	_, _ = col.Upsert("u4", []float32{0, 0, 0, 1})

	col.BuildIndex()
	if err := col.Save(); err != nil {
		return err
	}

	reopened, err := vecdb.Open(dir)
	if err != nil {
		return err
	}

	q := []float32{0.9, 0.1, 0, 0}
	res, err := reopened.Search(q, 3, 50)
	if err != nil {
		return err
	}

	fmt.Printf("Reloaded collection search q=%s\nTop3:\n", printVec(q))
	for _, r := range res {
		fmt.Printf("  index=%d id=%s dist=%.6f\n", r.Slot, r.ID, r.Distance)
	}
	return nil
}
