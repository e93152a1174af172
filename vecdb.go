// Package vecdb is an embeddable vector-search engine for fixed-dimension
// float32 vectors.
//
// A Collection stores (id, vector, metadata) records in a stable-index slot
// table, builds an HNSW graph over them, and answers approximate top-k
// nearest-neighbor queries under squared-Euclidean or cosine distance. The
// engine is process-local and persists to a directory of files.
//
// Quick start:
//
//	col, err := vecdb.Create("data/demo", 4, vecdb.WithMetric(distance.MetricL2))
//	if err != nil {
//		log.Fatal(err)
//	}
//	_, _ = col.Upsert("u1", []float32{1, 0, 0, 0})
//	_, _ = col.Upsert("u2", []float32{0, 1, 0, 0})
//	col.BuildIndex()
//	results, _ := col.Search([]float32{0.9, 0.1, 0, 0}, 3, 50)
//	_ = col.Save()
//
// Any mutation invalidates a built index; call BuildIndex again before the
// next unfiltered search. Filtered searches run as exact scans and work
// without an index.
package vecdb

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Schromeo/VecDBMVP/distance"
	"github.com/Schromeo/VecDBMVP/index/hnsw"
	"github.com/Schromeo/VecDBMVP/metadata"
	"github.com/Schromeo/VecDBMVP/persistence"
	"github.com/Schromeo/VecDBMVP/searcher"
	"github.com/Schromeo/VecDBMVP/vectorstore"
)

// SearchResult is one hit of a collection search.
type SearchResult struct {
	Slot     int     // stable slot index of the record
	ID       string  // external id
	Distance float32 // metric distance to the query, lower is closer
}

// Collection owns a vector store and an optional HNSW graph, serialized by a
// single reader-writer lock. Readers may proceed in parallel; writers are
// exclusive. Long operations (BuildIndex, Save) hold the write lock for
// their entire duration.
type Collection struct {
	mu sync.RWMutex

	dir    string
	metric distance.Metric
	params hnsw.Params

	store *vectorstore.Store
	graph *hnsw.HNSW

	logger  *Logger
	metrics MetricsCollector
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%w: path exists and is not a directory: %s", ErrInvalidArgument, dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// Create creates a new collection at dir and immediately persists a manifest
// plus an empty store. It fails when the path exists and is not a directory,
// or when dim is not positive.
func Create(dir string, dim int, optFns ...Option) (*Collection, error) {
	opts := applyOptions(optFns)

	store, err := vectorstore.New(dim)
	if err != nil {
		return nil, translateError(err)
	}
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	c := &Collection{
		dir:     dir,
		metric:  opts.metric,
		params:  opts.params,
		store:   store,
		logger:  opts.logger,
		metrics: opts.metrics,
	}
	if err := c.save(); err != nil {
		return nil, translateError(err)
	}
	return c, nil
}

// Open loads a collection from dir: manifest, store, and the graph iff a
// graph file is present. A directory without a manifest yields ErrNotFound.
func Open(dir string, optFns ...Option) (*Collection, error) {
	opts := applyOptions(optFns)

	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	mf, err := persistence.ReadManifest(dir)
	if err != nil {
		return nil, translateOpenError(err)
	}

	store, err := vectorstore.New(mf.Dim)
	if err != nil {
		return nil, translateError(err)
	}
	if err := persistence.LoadStore(dir, store); err != nil {
		return nil, translateError(err)
	}

	c := &Collection{
		dir:     dir,
		metric:  mf.ParsedMetric(),
		params:  mf.Params(),
		store:   store,
		logger:  opts.logger,
		metrics: opts.metrics,
	}

	if persistence.GraphExists(dir) {
		ex, err := persistence.LoadGraph(dir)
		if err != nil {
			return nil, translateError(err)
		}
		g := hnsw.New(store, c.metric, c.params)
		if err := g.ImportGraph(ex); err != nil {
			return nil, translateError(err)
		}
		c.graph = g
	}

	c.logger.LogOpen(dir, store.Size(), c.graph != nil)
	return c, nil
}

// Dir returns the collection directory.
func (c *Collection) Dir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dir
}

// Dim returns the vector dimension.
func (c *Collection) Dim() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Dim()
}

// Metric returns the distance metric.
func (c *Collection) Metric() distance.Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metric
}

// HNSWParams returns the index construction parameters.
func (c *Collection) HNSWParams() hnsw.Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// Size returns the number of slots ever created, tombstones included.
func (c *Collection) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Size()
}

// AliveCount returns the number of non-tombstoned records.
func (c *Collection) AliveCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.AliveCount()
}

// Contains reports whether id maps to an alive record.
func (c *Collection) Contains(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Contains(id)
}

// IDAt returns the id stored at a slot index.
func (c *Collection) IDAt(slot int) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.IDAt(slot)
}

// MetadataAt returns a copy of the metadata stored at a slot index.
func (c *Collection) MetadataAt(slot int) metadata.Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.MetadataAt(slot).Clone()
}

// MetadataOf returns a copy of the metadata of an alive id, or nil.
func (c *Collection) MetadataOf(id string) metadata.Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.MetadataOf(id).Clone()
}

// HasIndex reports whether a built graph is present.
func (c *Collection) HasIndex() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graph != nil
}

// Upsert writes vec under id, keeping any existing metadata. Returns the
// stable slot index. Any built index is dropped.
func (c *Collection) Upsert(id string, vec []float32) (int, error) {
	return c.upsert(id, vec, nil)
}

// UpsertWithMetadata writes vec under id and replaces the record's metadata.
func (c *Collection) UpsertWithMetadata(id string, vec []float32, meta metadata.Metadata) (int, error) {
	if meta == nil {
		meta = metadata.Metadata{}
	}
	return c.upsert(id, vec, meta)
}

func (c *Collection) upsert(id string, vec []float32, meta metadata.Metadata) (int, error) {
	start := time.Now()
	c.mu.Lock()
	slot, err := c.store.Upsert(id, vec, meta)
	if err == nil {
		c.graph = nil
	}
	c.mu.Unlock()

	err = translateError(err)
	c.metrics.RecordUpsert(time.Since(start), err)
	c.logger.LogUpsert(id, slot, err)
	return slot, err
}

// Insert behaves as Upsert but fails with ErrConflict when id is already
// alive. A tombstoned id is revived at its original slot.
func (c *Collection) Insert(id string, vec []float32, meta metadata.Metadata) (int, error) {
	start := time.Now()
	c.mu.Lock()
	slot, err := c.store.Insert(id, vec, meta)
	if err == nil {
		c.graph = nil
	}
	c.mu.Unlock()

	err = translateError(err)
	c.metrics.RecordUpsert(time.Since(start), err)
	c.logger.LogUpsert(id, slot, err)
	return slot, err
}

// Remove tombstones the record mapped to id. Returns false when the id is
// unknown or already dead. The slot index stays reserved for revival.
func (c *Collection) Remove(id string) bool {
	start := time.Now()
	c.mu.Lock()
	removed := c.store.Remove(id)
	if removed {
		c.graph = nil
	}
	c.mu.Unlock()

	c.metrics.RecordRemove(time.Since(start), removed)
	c.logger.LogRemove(id, removed)
	return removed
}

// SetMetric changes the distance metric and drops any built index.
func (c *Collection) SetMetric(m distance.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metric = m
	c.graph = nil
}

// SetHNSWParams changes the index parameters and drops any built index.
func (c *Collection) SetHNSWParams(p hnsw.Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
	c.graph = nil
}

// BuildIndex constructs a fresh graph from the current alive records.
func (c *Collection) BuildIndex() {
	start := time.Now()
	c.mu.Lock()
	g := hnsw.New(c.store, c.metric, c.params)
	for i := 0; i < c.store.Size(); i++ {
		if c.store.IsAlive(i) {
			g.Insert(i)
		}
	}
	c.graph = g
	alive := c.store.AliveCount()
	c.mu.Unlock()

	c.metrics.RecordBuild(alive, time.Since(start))
	c.logger.LogBuild(alive, time.Since(start))
}

// Search returns the approximate top-k records nearest to query, sorted by
// distance ascending. It requires a built index.
func (c *Collection) Search(query []float32, k, efSearch int) ([]SearchResult, error) {
	start := time.Now()
	c.mu.RLock()
	results, err := c.searchLocked(query, k, efSearch)
	c.mu.RUnlock()

	err = translateError(err)
	c.metrics.RecordSearch(k, time.Since(start), err)
	c.logger.LogSearch(k, len(results), false, err)
	return results, err
}

func (c *Collection) searchLocked(query []float32, k, efSearch int) ([]SearchResult, error) {
	if len(query) != c.store.Dim() {
		return nil, &hnsw.ErrDimensionMismatch{Expected: c.store.Dim(), Actual: len(query)}
	}
	if c.graph == nil {
		return nil, ErrNotReady
	}

	hits, err := c.graph.Search(query, k, efSearch)
	if err != nil {
		return nil, err
	}
	return c.resolve(hits), nil
}

// SearchWithFilter answers a query under a metadata filter. A non-empty
// filter routes to an exact scan over alive matching records, correct with
// or without a built index; an empty filter behaves as Search.
func (c *Collection) SearchWithFilter(query []float32, k, efSearch int, filter metadata.Filter) ([]SearchResult, error) {
	start := time.Now()
	c.mu.RLock()
	var (
		results []SearchResult
		err     error
	)
	if filter.IsEmpty() {
		results, err = c.searchLocked(query, k, efSearch)
	} else {
		results, err = c.scanLocked(query, k, filter)
	}
	c.mu.RUnlock()

	err = translateError(err)
	c.metrics.RecordSearch(k, time.Since(start), err)
	c.logger.LogSearch(k, len(results), !filter.IsEmpty(), err)
	return results, err
}

// BruteSearch returns the exact top-k over all alive records. It never uses
// the graph.
func (c *Collection) BruteSearch(query []float32, k int) ([]SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scanLocked(query, k, metadata.Filter{})
}

func (c *Collection) scanLocked(query []float32, k int, filter metadata.Filter) ([]SearchResult, error) {
	if len(query) != c.store.Dim() {
		return nil, &hnsw.ErrDimensionMismatch{Expected: c.store.Dim(), Actual: len(query)}
	}
	if k <= 0 {
		return nil, nil
	}

	heap := searcher.NewMax(k + 1)
	it := c.store.FilterSlots(filter).Iterator()
	for it.HasNext() {
		slot := int(it.Next())
		vec := c.store.Vector(slot)
		if vec == nil {
			continue
		}
		d := distance.Distance(c.metric, query, vec)
		heap.PushItemBounded(searcher.PriorityQueueItem{Slot: slot, Distance: d}, k)
	}

	items := heap.DrainAscending()
	hits := make([]hnsw.SearchResult, len(items))
	for i, item := range items {
		hits[i] = hnsw.SearchResult{Slot: item.Slot, Distance: item.Distance}
	}
	return c.resolve(hits), nil
}

func (c *Collection) resolve(hits []hnsw.SearchResult) []SearchResult {
	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		out[i] = SearchResult{
			Slot:     h.Slot,
			ID:       c.store.IDAt(h.Slot),
			Distance: h.Distance,
		}
	}
	return out
}

// Save persists the manifest, the store files, and the graph if one is
// built; without a graph any stale graph file is removed. Saves are not
// atomic across files: an interrupted save can leave sections that disagree,
// which a later Open rejects as corrupt.
func (c *Collection) Save() error {
	start := time.Now()
	c.mu.Lock()
	err := c.save()
	withGraph := c.graph != nil
	c.mu.Unlock()

	err = translateError(err)
	c.metrics.RecordSave(time.Since(start), err)
	c.logger.LogSave(c.dir, withGraph, err)
	return err
}

func (c *Collection) save() error {
	if err := ensureDir(c.dir); err != nil {
		return err
	}
	if err := persistence.WriteManifest(c.dir, persistence.NewManifest(c.store.Dim(), c.metric, c.params)); err != nil {
		return err
	}
	if err := persistence.SaveStore(c.dir, c.store); err != nil {
		return err
	}

	if c.graph != nil {
		return persistence.SaveGraph(c.dir, c.graph.ExportGraph())
	}
	return persistence.RemoveGraph(c.dir)
}

// Stats describes the collection's current shape.
type Stats struct {
	Dir        string
	Dim        int
	Metric     distance.Metric
	Size       int
	AliveCount int
	HasIndex   bool
	Graph      hnsw.Stats
}

// Stats returns a snapshot of the collection's structure.
func (c *Collection) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Stats{
		Dir:        c.dir,
		Dim:        c.store.Dim(),
		Metric:     c.metric,
		Size:       c.store.Size(),
		AliveCount: c.store.AliveCount(),
		HasIndex:   c.graph != nil,
	}
	if c.graph != nil {
		st.Graph = c.graph.Stats()
	}
	return st
}
