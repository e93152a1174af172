// Package vectorstore implements the stable-index slot table backing a
// collection: contiguous float32 payload, external string ids, tombstone
// flags, and per-slot metadata.
//
// Slots are append-only. A slot index assigned on first upsert is never
// shifted or reassigned; removal tombstones the slot but keeps its id, bytes
// and mapping so a later upsert of the same id revives the same index.
package vectorstore

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Schromeo/VecDBMVP/metadata"
)

var (
	// ErrInvalidDimension is returned when a store is constructed with dim 0.
	ErrInvalidDimension = errors.New("vectorstore: dim must be > 0")

	// ErrEmptyID is returned when an id is empty.
	ErrEmptyID = errors.New("vectorstore: id cannot be empty")

	// ErrIDExists is returned by Insert when the id is already alive.
	ErrIDExists = errors.New("vectorstore: id already exists")
)

// ErrDimensionMismatch indicates a vector length that disagrees with the
// store dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vectorstore: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrSnapshotMismatch indicates disagreeing section lengths during
// LoadFromDisk.
type ErrSnapshotMismatch struct {
	Section  string
	Expected int
	Actual   int
}

func (e *ErrSnapshotMismatch) Error() string {
	return fmt.Sprintf("vectorstore: snapshot %s length mismatch: expected %d, got %d", e.Section, e.Expected, e.Actual)
}

// Store is the slot table. It is not safe for concurrent use; the owning
// collection serializes access.
type Store struct {
	dim   int
	data  []float32           // len == len(ids) * dim
	ids   []string            // slot -> external id ("" only for nameless holes from disk)
	meta  []metadata.Metadata // slot -> metadata (nil means empty)
	alive *roaring.Bitmap
	index map[string]int // id -> slot, kept across tombstoning for revival

	minvert *metadata.InvertedIndex
}

// New creates an empty store for vectors of the given dimension.
func New(dim int) (*Store, error) {
	if dim <= 0 {
		return nil, ErrInvalidDimension
	}
	return &Store{
		dim:     dim,
		alive:   roaring.New(),
		index:   make(map[string]int),
		minvert: metadata.NewInvertedIndex(),
	}, nil
}

// Dim returns the vector dimension.
func (s *Store) Dim() int { return s.dim }

// Size returns the number of slots ever created.
func (s *Store) Size() int { return len(s.ids) }

// AliveCount returns the number of non-tombstoned slots.
func (s *Store) AliveCount() int { return int(s.alive.GetCardinality()) }

// IsAlive reports whether slot i exists and is not tombstoned.
func (s *Store) IsAlive(i int) bool {
	return i >= 0 && i < len(s.ids) && s.alive.Contains(uint32(i))
}

// Contains reports whether id maps to an alive slot.
func (s *Store) Contains(id string) bool {
	i, ok := s.index[id]
	return ok && s.IsAlive(i)
}

// IndexOf returns the slot mapped to id, alive or tombstoned.
func (s *Store) IndexOf(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// IDAt returns the id stored at slot i ("" for out-of-range).
func (s *Store) IDAt(i int) string {
	if i < 0 || i >= len(s.ids) {
		return ""
	}
	return s.ids[i]
}

// MetadataAt returns the metadata stored at slot i (nil for out-of-range or
// slots without metadata). The returned map aliases internal state.
func (s *Store) MetadataAt(i int) metadata.Metadata {
	if i < 0 || i >= len(s.meta) {
		return nil
	}
	return s.meta[i]
}

// MetadataOf returns the metadata of an alive id, or nil.
func (s *Store) MetadataOf(id string) metadata.Metadata {
	i, ok := s.index[id]
	if !ok || !s.IsAlive(i) {
		return nil
	}
	return s.meta[i]
}

// Vector returns the payload of slot i, or nil for out-of-range or dead
// slots. The returned slice aliases the store's buffer and is invalidated by
// any subsequent mutation.
func (s *Store) Vector(i int) []float32 {
	if !s.IsAlive(i) {
		return nil
	}
	return s.data[i*s.dim : (i+1)*s.dim]
}

// VectorByID returns the payload mapped to an alive id, or nil.
func (s *Store) VectorByID(id string) []float32 {
	i, ok := s.index[id]
	if !ok {
		return nil
	}
	return s.Vector(i)
}

// rawVector returns the payload bytes of any existing slot, dead included.
func (s *Store) rawVector(i int) []float32 {
	return s.data[i*s.dim : (i+1)*s.dim]
}

func (s *Store) validate(id string, vec []float32) error {
	if id == "" {
		return ErrEmptyID
	}
	if len(vec) != s.dim {
		return &ErrDimensionMismatch{Expected: s.dim, Actual: len(vec)}
	}
	return nil
}

// Upsert writes vec under id, assigning a new slot for unseen ids, reviving
// tombstoned ones, and overwriting alive ones. When meta is non-nil the
// slot's metadata is replaced; nil leaves existing metadata untouched.
// Returns the slot index.
func (s *Store) Upsert(id string, vec []float32, meta metadata.Metadata) (int, error) {
	if err := s.validate(id, vec); err != nil {
		return 0, err
	}

	if i, ok := s.index[id]; ok {
		copy(s.rawVector(i), vec)
		s.alive.Add(uint32(i))
		if s.ids[i] == "" {
			s.ids[i] = id
		}
		if meta != nil {
			s.minvert.Replace(i, s.meta[i], meta)
			s.meta[i] = meta.Clone()
		}
		return i, nil
	}

	return s.append(id, vec, meta), nil
}

// Insert behaves as Upsert except it fails when id is already alive.
// A tombstoned id is revived at its original slot.
func (s *Store) Insert(id string, vec []float32, meta metadata.Metadata) (int, error) {
	if err := s.validate(id, vec); err != nil {
		return 0, err
	}

	if i, ok := s.index[id]; ok {
		if s.IsAlive(i) {
			return 0, fmt.Errorf("%w: %q", ErrIDExists, id)
		}
		copy(s.rawVector(i), vec)
		s.alive.Add(uint32(i))
		if meta != nil {
			s.minvert.Replace(i, s.meta[i], meta)
			s.meta[i] = meta.Clone()
		}
		return i, nil
	}

	return s.append(id, vec, meta), nil
}

func (s *Store) append(id string, vec []float32, meta metadata.Metadata) int {
	i := len(s.ids)
	s.ids = append(s.ids, id)
	s.meta = append(s.meta, meta.Clone())
	s.data = append(s.data, vec...)
	s.alive.Add(uint32(i))
	s.index[id] = i
	s.minvert.Add(i, meta)
	return i
}

// Remove tombstones the slot mapped to id. Returns false when the id is
// unknown or already dead. The id string, payload bytes, and mapping stay in
// place so the slot can be revived.
func (s *Store) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok || !s.IsAlive(i) {
		return false
	}
	s.alive.Remove(uint32(i))
	return true
}

// FilterSlots returns the alive slots whose metadata carries the filter's
// key/value pair. An empty filter returns all alive slots. The bitmap is a
// copy and safe to mutate.
func (s *Store) FilterSlots(f metadata.Filter) *roaring.Bitmap {
	if f.IsEmpty() {
		return s.alive.Clone()
	}
	bm := s.minvert.Lookup(f)
	if bm == nil {
		return roaring.New()
	}
	bm.And(s.alive)
	return bm
}

// AliveSlots returns a copy of the alive bitmap.
func (s *Store) AliveSlots() *roaring.Bitmap {
	return s.alive.Clone()
}

// LoadFromDisk replaces the store contents with a persisted snapshot.
// All section lengths must agree with n; the id map and inverted index are
// rebuilt from every non-empty id so tombstones stay revivable.
func (s *Store) LoadFromDisk(n int, vectors []float32, alive []bool, ids []string, meta []metadata.Metadata) error {
	if len(alive) != n {
		return &ErrSnapshotMismatch{Section: "alive", Expected: n, Actual: len(alive)}
	}
	if len(ids) != n {
		return &ErrSnapshotMismatch{Section: "ids", Expected: n, Actual: len(ids)}
	}
	if len(meta) != n {
		return &ErrSnapshotMismatch{Section: "meta", Expected: n, Actual: len(meta)}
	}
	if len(vectors) != n*s.dim {
		return &ErrSnapshotMismatch{Section: "vectors", Expected: n * s.dim, Actual: len(vectors)}
	}

	s.data = vectors
	s.ids = ids
	s.meta = meta
	s.alive = roaring.New()
	s.index = make(map[string]int, n)
	s.minvert.Clear()

	for i := 0; i < n; i++ {
		if alive[i] {
			s.alive.Add(uint32(i))
		}
		if ids[i] != "" {
			s.index[ids[i]] = i
		}
		s.minvert.Add(i, meta[i])
	}
	return nil
}
