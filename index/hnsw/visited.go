package hnsw

// Visited tracks visited slots using a stamp array for O(1) reset.
// mark[i] == stamp means slot i was visited in the current search.
//
// Not safe for concurrent use; searches take instances from a pool.
type Visited struct {
	mark  []uint32
	stamp uint32
}

// NewVisited creates a visited set sized for n slots.
func NewVisited(n int) *Visited {
	return &Visited{
		mark:  make([]uint32, n),
		stamp: 1,
	}
}

// Start begins a new search over a universe of n slots: grows the mark array
// to at least n and advances the stamp. On stamp overflow the whole array is
// cleared and the stamp restarts at 1.
func (v *Visited) Start(n int) {
	if len(v.mark) < n {
		grown := make([]uint32, n)
		copy(grown, v.mark)
		v.mark = grown
	}

	v.stamp++
	if v.stamp == 0 {
		clear(v.mark)
		v.stamp = 1
	}
}

// Test reports whether slot i was visited in the current search.
func (v *Visited) Test(i int) bool {
	return i < len(v.mark) && v.mark[i] == v.stamp
}

// Set marks slot i as visited.
func (v *Visited) Set(i int) {
	v.mark[i] = v.stamp
}

// TestAndSet returns true if slot i was already visited; otherwise it marks
// the slot and returns false.
func (v *Visited) TestAndSet(i int) bool {
	if v.mark[i] == v.stamp {
		return true
	}
	v.mark[i] = v.stamp
	return false
}
