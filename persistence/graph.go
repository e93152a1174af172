package persistence

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Schromeo/VecDBMVP/index/hnsw"
)

// GraphExists reports whether dir contains a saved graph.
func GraphExists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, GraphFileName))
	return err == nil && info.Mode().IsRegular()
}

// RemoveGraph deletes a stale hnsw.bin if present.
func RemoveGraph(dir string) error {
	err := os.Remove(filepath.Join(dir, GraphFileName))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SaveGraph writes the export view of the graph: one entry per store slot,
// level -1 for slots the graph never inserted, neighbor indices as u32.
func SaveGraph(dir string, ex hnsw.Export) error {
	return saveToFile(filepath.Join(dir, GraphFileName), func(w io.Writer) error {
		if _, err := w.Write(graphMagic[:]); err != nil {
			return err
		}

		bw := newBinaryWriter(w)
		if err := bw.writeU64(uint64(len(ex.Nodes))); err != nil {
			return err
		}
		if err := bw.writeI32(int32(ex.MaxLevel)); err != nil {
			return err
		}
		if err := bw.writeU64(uint64(ex.EntryPoint)); err != nil {
			return err
		}
		hasEntry := uint32(0)
		if ex.HasEntry {
			hasEntry = 1
		}
		if err := bw.writeU32(hasEntry); err != nil {
			return err
		}

		for _, n := range ex.Nodes {
			if err := bw.writeI32(int32(n.Level)); err != nil {
				return err
			}
			if n.Level < 0 {
				continue
			}
			for l := 0; l <= n.Level; l++ {
				nbrs := n.Links[l]
				if err := bw.writeU32(uint32(len(nbrs))); err != nil {
					return err
				}
				for _, nb := range nbrs {
					if err := bw.writeU32(uint32(nb)); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// LoadGraph reads the graph export from dir. The caller validates the node
// count against the store via hnsw.ImportGraph.
func LoadGraph(dir string) (hnsw.Export, error) {
	var ex hnsw.Export

	err := loadFromFile(filepath.Join(dir, GraphFileName), func(r io.Reader) error {
		var magic [8]byte
		if _, err := io.ReadFull(r, magic[:]); err != nil {
			return err
		}
		if !bytes.Equal(magic[:], graphMagic[:]) {
			return fmt.Errorf("%w: hnsw.bin", ErrInvalidMagic)
		}

		br := newBinaryReader(r)
		n, err := br.readU64()
		if err != nil {
			return err
		}
		maxLevel, err := br.readI32()
		if err != nil {
			return err
		}
		entryPoint, err := br.readU64()
		if err != nil {
			return err
		}
		hasEntry, err := br.readU32()
		if err != nil {
			return err
		}

		ex.MaxLevel = int(maxLevel)
		ex.EntryPoint = int(entryPoint)
		ex.HasEntry = hasEntry != 0
		ex.Nodes = make([]hnsw.ExportNode, n)

		for i := range ex.Nodes {
			lvl, err := br.readI32()
			if err != nil {
				return err
			}
			ex.Nodes[i].Level = int(lvl)
			if lvl < 0 {
				continue
			}

			links := make([][]int, lvl+1)
			for l := int32(0); l <= lvl; l++ {
				deg, err := br.readU32()
				if err != nil {
					return err
				}
				if deg == 0 {
					continue
				}
				nbrs := make([]int, deg)
				for j := range nbrs {
					nb, err := br.readU32()
					if err != nil {
						return err
					}
					nbrs[j] = int(nb)
				}
				links[l] = nbrs
			}
			ex.Nodes[i].Links = links
		}
		return nil
	})
	return ex, err
}
