package hnsw

// Stats summarizes the graph structure.
type Stats struct {
	Nodes      int   // slots inserted into the graph
	Edges      int   // directed edges across all levels
	MaxLevel   int   // highest node level (-1 when empty)
	EntryPoint int   // entry slot (meaningless when HasEntry is false)
	HasEntry   bool  // false for an empty graph
	LevelCount []int // nodes per level, LevelCount[l] counts nodes with level >= l
}

// Stats walks the graph and returns structural counters.
func (h *HNSW) Stats() Stats {
	st := Stats{
		MaxLevel:   h.maxLevel,
		EntryPoint: h.entryPoint,
		HasEntry:   h.hasEntry,
	}
	if h.maxLevel >= 0 {
		st.LevelCount = make([]int, h.maxLevel+1)
	}

	for i := range h.nodes {
		lvl := h.nodes[i].level()
		if lvl < 0 {
			continue
		}
		st.Nodes++
		for l := 0; l <= lvl && l < len(st.LevelCount); l++ {
			st.LevelCount[l]++
		}
		for _, nbrs := range h.nodes[i].links {
			st.Edges += len(nbrs)
		}
	}
	return st
}
