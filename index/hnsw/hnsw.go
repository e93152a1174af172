// Package hnsw implements the Hierarchical Navigable Small World graph for
// approximate nearest neighbor search over a stable-index vector store.
//
// Graph edges are store slot indices, not owning references: tombstoned
// slots prune themselves from traversal via the alive check, and edges stay
// valid across tombstone/revive cycles.
package hnsw

import (
	"fmt"
	"math"
	"sync"

	"github.com/Schromeo/VecDBMVP/distance"
	"github.com/Schromeo/VecDBMVP/searcher"
)

// VectorSource is the view of the vector store the graph needs. Vector must
// return nil for out-of-range or tombstoned slots.
type VectorSource interface {
	Dim() int
	Size() int
	IsAlive(i int) bool
	Vector(i int) []float32
}

// Params configure graph construction.
type Params struct {
	M              int     // degree cap on layers > 0
	M0             int     // degree cap on layer 0, typically 2*M
	EfConstruction int     // beam size during build
	UseDiversity   bool    // neighbor diversity heuristic toggle
	Seed           uint32  // LCG seed; same seed + insertion order => same graph
	LevelMult      float64 // level sampling multiplier
}

// DefaultParams are the construction defaults.
var DefaultParams = Params{
	M:              16,
	M0:             32,
	EfConstruction: 100,
	UseDiversity:   true,
	Seed:           123,
	LevelMult:      1.0,
}

// maxSampledLevel bounds the geometric level sampler.
const maxSampledLevel = 64

// SearchResult pairs a store slot with its distance to the query.
type SearchResult struct {
	Slot     int
	Distance float32
}

// ErrDimensionMismatch indicates a query length that disagrees with the
// store dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("hnsw: query dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrSnapshotMismatch indicates an imported graph whose node count disagrees
// with the store's slot universe.
type ErrSnapshotMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrSnapshotMismatch) Error() string {
	return fmt.Sprintf("hnsw: snapshot node count mismatch: store has %d slots, snapshot has %d", e.Expected, e.Actual)
}

// ErrLinkListMismatch indicates an imported node whose neighbor-list count
// disagrees with its level.
type ErrLinkListMismatch struct {
	Slot  int
	Level int
	Lists int
}

func (e *ErrLinkListMismatch) Error() string {
	return fmt.Sprintf("hnsw: node %d: level %d requires %d link lists, got %d", e.Slot, e.Level, e.Level+1, e.Lists)
}

// HNSW is the multi-level proximity graph. Construction is single-writer;
// searches may run concurrently because visited sets come from a pool and
// the heaps are allocated per call.
type HNSW struct {
	store  VectorSource
	metric distance.Metric
	params Params

	nodes      []node
	entryPoint int
	hasEntry   bool
	maxLevel   int

	rngState  uint32
	rngInited bool

	visitedPool sync.Pool
}

// New creates an empty graph over the given store.
func New(store VectorSource, metric distance.Metric, params Params) *HNSW {
	h := &HNSW{
		store:    store,
		metric:   metric,
		params:   params,
		maxLevel: -1,
	}
	h.visitedPool.New = func() any { return NewVisited(store.Size()) }
	return h
}

// Empty reports whether the graph has no entry point.
func (h *HNSW) Empty() bool { return !h.hasEntry }

// MaxLevel returns the highest level of any inserted node (-1 when empty).
func (h *HNSW) MaxLevel() int { return h.maxLevel }

// Params returns the construction parameters.
func (h *HNSW) Params() Params { return h.params }

// lcgNext advances the 32-bit linear congruential generator.
func lcgNext(state *uint32) uint32 {
	*state = *state*1664525 + 1013904223
	return *state
}

// lcgUniform01 draws from [0, 1) using the top 24 bits of the LCG.
func lcgUniform01(state *uint32) float32 {
	x := lcgNext(state) >> 8
	return float32(x) / float32(uint32(1)<<24)
}

func (h *HNSW) randomLevel() int {
	if !h.rngInited {
		h.rngState = h.params.Seed
		h.rngInited = true
	}

	p := float32(math.Exp(-1.0 / math.Max(0.0001, h.params.LevelMult)))
	lvl := 0
	for lcgUniform01(&h.rngState) < p {
		lvl++
		if lvl >= maxSampledLevel {
			break
		}
	}
	return lvl
}

func (h *HNSW) maxDeg(level int) int {
	if level == 0 {
		return h.params.M0
	}
	return h.params.M
}

func (h *HNSW) ensureNode(index int) {
	for index >= len(h.nodes) {
		h.nodes = append(h.nodes, node{})
	}
}

func (h *HNSW) nodeLevel(index int) int {
	if index >= len(h.nodes) {
		return -1
	}
	return h.nodes[index].level()
}

// distTo measures query-to-slot distance; dead slots are infinitely far.
func (h *HNSW) distTo(query []float32, i int) float32 {
	v := h.store.Vector(i)
	if v == nil {
		return float32(math.Inf(1))
	}
	return distance.Distance(h.metric, query, v)
}

// searchLevel runs the bounded best-first beam search on a single level.
// Results come back sorted by distance ascending, at most ef of them.
func (h *HNSW) searchLevel(query []float32, entry, level, ef int) []SearchResult {
	if !h.hasEntry || ef == 0 {
		return nil
	}
	if !h.store.IsAlive(entry) {
		return nil
	}

	visited := h.visitedPool.Get().(*Visited)
	defer h.visitedPool.Put(visited)
	visited.Start(h.store.Size())

	entryDist := h.distTo(query, entry)

	candidates := searcher.NewMin(ef)
	results := searcher.NewMax(ef + 1)

	candidates.PushItem(searcher.PriorityQueueItem{Slot: entry, Distance: entryDist})
	results.PushItem(searcher.PriorityQueueItem{Slot: entry, Distance: entryDist})
	visited.Set(entry)

	for candidates.Len() > 0 {
		c, _ := candidates.PopItem()

		worst, _ := results.TopItem()
		if c.Distance > worst.Distance {
			break
		}

		// Edges from layers above may reach this node during the descent
		// phase of insertion; it owns no list at this level then.
		if h.nodeLevel(c.Slot) < level {
			continue
		}

		for _, nb := range h.nodes[c.Slot].links[level] {
			if !h.store.IsAlive(nb) {
				continue
			}
			if visited.TestAndSet(nb) {
				continue
			}

			d := h.distTo(query, nb)

			if results.Len() < ef {
				candidates.PushItem(searcher.PriorityQueueItem{Slot: nb, Distance: d})
				results.PushItem(searcher.PriorityQueueItem{Slot: nb, Distance: d})
			} else if top, _ := results.TopItem(); d < top.Distance {
				candidates.PushItem(searcher.PriorityQueueItem{Slot: nb, Distance: d})
				results.PushItem(searcher.PriorityQueueItem{Slot: nb, Distance: d})
				if results.Len() > ef {
					_, _ = results.PopItem()
				}
			}
		}
	}

	items := results.DrainAscending()
	out := make([]SearchResult, len(items))
	for i, item := range items {
		out[i] = SearchResult{Slot: item.Slot, Distance: item.Distance}
	}
	return out
}

// greedyDescent finds the single best candidate reachable from entry at the
// given level.
func (h *HNSW) greedyDescent(query []float32, entry, level int) int {
	res := h.searchLevel(query, entry, level, 1)
	if len(res) == 0 {
		return entry
	}
	return res[0].Slot
}

func (h *HNSW) selectNeighborsSimple(candidates []SearchResult, m int) []int {
	out := make([]int, 0, min(m, len(candidates)))
	for _, c := range candidates {
		if len(out) >= m {
			break
		}
		out = append(out, c.Slot)
	}
	return out
}

// selectNeighborsDiverse walks candidates in ascending distance from base and
// admits a candidate only when it is closer to base than to every neighbor
// already selected. Remaining capacity is topped up with the skipped
// candidates in their original order.
func (h *HNSW) selectNeighborsDiverse(base int, candidates []SearchResult, m int) []int {
	selected := make([]int, 0, min(m, len(candidates)))

	baseVec := h.store.Vector(base)
	if baseVec == nil {
		return selected
	}

	for _, cand := range candidates {
		if len(selected) >= m {
			break
		}

		c := cand.Slot
		if c == base {
			continue
		}
		cVec := h.store.Vector(c)
		if cVec == nil {
			continue
		}

		ok := true
		for _, s := range selected {
			sVec := h.store.Vector(s)
			if sVec == nil {
				continue
			}
			if distance.Distance(h.metric, cVec, sVec) < cand.Distance {
				ok = false
				break
			}
		}
		if ok {
			selected = append(selected, c)
		}
	}

	if len(selected) < m {
		for _, cand := range candidates {
			if len(selected) >= m {
				break
			}
			c := cand.Slot
			if c == base || h.store.Vector(c) == nil {
				continue
			}
			already := false
			for _, s := range selected {
				if s == c {
					already = true
					break
				}
			}
			if !already {
				selected = append(selected, c)
			}
		}
	}

	return selected
}

func (h *HNSW) selectNeighbors(base int, candidates []SearchResult, m int) []int {
	if h.params.UseDiversity {
		return h.selectNeighborsDiverse(base, candidates, m)
	}
	return h.selectNeighborsSimple(candidates, m)
}

// pruneNeighbors re-selects the neighbor list of a node at one level when it
// exceeds the degree cap, ranking by current distance from the node.
func (h *HNSW) pruneNeighbors(n, level int) {
	if h.nodeLevel(n) < level {
		return
	}

	nbrs := h.nodes[n].links[level]
	m := h.maxDeg(level)
	if len(nbrs) <= m {
		return
	}

	base := h.store.Vector(n)
	if base == nil {
		return
	}

	cand := make([]SearchResult, 0, len(nbrs))
	for _, nb := range nbrs {
		v := h.store.Vector(nb)
		if v == nil {
			continue
		}
		cand = append(cand, SearchResult{Slot: nb, Distance: distance.Distance(h.metric, base, v)})
	}
	sortByDistance(cand)

	h.nodes[n].links[level] = h.selectNeighbors(n, cand, m)
}

func (h *HNSW) connectBidirectional(a, b, level int) {
	if h.nodeLevel(a) < level || h.nodeLevel(b) < level {
		return
	}

	h.nodes[a].links[level] = append(h.nodes[a].links[level], b)
	h.nodes[b].links[level] = append(h.nodes[b].links[level], a)

	h.pruneNeighbors(a, level)
	h.pruneNeighbors(b, level)
}

// Insert adds the slot to the graph. Dead slots are ignored.
func (h *HNSW) Insert(index int) {
	if !h.store.IsAlive(index) {
		return
	}

	h.ensureNode(index)

	lvl := h.randomLevel()
	h.nodes[index].links = make([][]int, lvl+1)

	if !h.hasEntry {
		h.entryPoint = index
		h.hasEntry = true
		h.maxLevel = lvl
		return
	}

	q := h.store.Vector(index)
	if q == nil {
		return
	}

	ep := h.entryPoint
	for l := h.maxLevel; l > lvl; l-- {
		ep = h.greedyDescent(q, ep, l)
	}

	for l := min(lvl, h.maxLevel); l >= 0; l-- {
		candidates := h.searchLevel(q, ep, l, h.params.EfConstruction)

		filtered := candidates[:0]
		for _, c := range candidates {
			if c.Slot != index {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered

		chosen := h.selectNeighbors(index, candidates, h.maxDeg(l))

		for _, nb := range chosen {
			h.ensureNode(nb)
			if h.nodeLevel(nb) < l {
				continue
			}
			h.connectBidirectional(index, nb, l)
		}

		if len(candidates) > 0 {
			ep = candidates[0].Slot
		}
	}

	if lvl > h.maxLevel {
		h.maxLevel = lvl
		h.entryPoint = index
	}
}

// Search returns the approximate top-k nearest slots to query, sorted by
// distance ascending. An empty graph or k == 0 yields no results.
func (h *HNSW) Search(query []float32, k, efSearch int) ([]SearchResult, error) {
	if len(query) != h.store.Dim() {
		return nil, &ErrDimensionMismatch{Expected: h.store.Dim(), Actual: len(query)}
	}
	if !h.hasEntry || k <= 0 {
		return nil, nil
	}

	ep := h.entryPoint
	for l := h.maxLevel; l > 0; l-- {
		ep = h.greedyDescent(query, ep, l)
	}

	ef := max(efSearch, k)
	res := h.searchLevel(query, ep, 0, ef)
	if len(res) > k {
		res = res[:k]
	}
	return res, nil
}

func sortByDistance(rs []SearchResult) {
	// Insertion sort; neighbor lists are short (<= M0 + 1).
	for i := 1; i < len(rs); i++ {
		for j := i; j > 0 && rs[j].Distance < rs[j-1].Distance; j-- {
			rs[j], rs[j-1] = rs[j-1], rs[j]
		}
	}
}
