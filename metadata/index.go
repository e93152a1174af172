package metadata

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// InvertedIndex maps key=value pairs to the set of slot indices whose
// metadata carries that pair. It accelerates filtered scans: the scan only
// touches slots in the posting bitmap instead of the whole store.
//
// Liveness is not tracked here; callers intersect postings with the store's
// alive set.
type InvertedIndex struct {
	postings map[string]*roaring.Bitmap
}

// NewInvertedIndex creates an empty inverted index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		postings: make(map[string]*roaring.Bitmap),
	}
}

// postingKey joins key and value with a NUL separator. The codec does not
// escape NUL, so a key or value that itself contains NUL can map to the same
// posting key as a different pair.
func postingKey(key, value string) string {
	return key + "\x00" + value
}

// Add records slot under every key=value pair of m.
func (ix *InvertedIndex) Add(slot int, m Metadata) {
	for k, v := range m {
		pk := postingKey(k, v)
		bm, ok := ix.postings[pk]
		if !ok {
			bm = roaring.New()
			ix.postings[pk] = bm
		}
		bm.Add(uint32(slot))
	}
}

// Remove drops slot from every key=value pair of m.
func (ix *InvertedIndex) Remove(slot int, m Metadata) {
	for k, v := range m {
		pk := postingKey(k, v)
		if bm, ok := ix.postings[pk]; ok {
			bm.Remove(uint32(slot))
			if bm.IsEmpty() {
				delete(ix.postings, pk)
			}
		}
	}
}

// Replace updates slot's postings from old to new metadata.
func (ix *InvertedIndex) Replace(slot int, old, updated Metadata) {
	ix.Remove(slot, old)
	ix.Add(slot, updated)
}

// Lookup returns the posting bitmap for the filter, or nil when no slot
// carries the pair. The returned bitmap is a copy and safe to mutate.
func (ix *InvertedIndex) Lookup(f Filter) *roaring.Bitmap {
	bm, ok := ix.postings[postingKey(f.Key, f.Value)]
	if !ok {
		return nil
	}
	return bm.Clone()
}

// Clear removes all postings.
func (ix *InvertedIndex) Clear() {
	ix.postings = make(map[string]*roaring.Bitmap)
}
