package persistence

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Schromeo/VecDBMVP/metadata"
	"github.com/Schromeo/VecDBMVP/vectorstore"
)

// SaveStore writes the four store sections for all N slots, alive or dead,
// preserving index stability. The sections are independent files, each
// written atomically, so they are produced concurrently.
func SaveStore(dir string, s *vectorstore.Store) error {
	var g errgroup.Group

	g.Go(func() error { return saveVectors(dir, s) })
	g.Go(func() error { return saveAlive(dir, s) })
	g.Go(func() error { return saveIDs(dir, s) })
	g.Go(func() error { return saveMeta(dir, s) })

	return g.Wait()
}

func saveVectors(dir string, s *vectorstore.Store) error {
	n := s.Size()
	dim := s.Dim()
	zeros := make([]float32, dim)

	return saveToFile(filepath.Join(dir, VectorsFileName), func(w io.Writer) error {
		bw := newBinaryWriter(w)
		if err := bw.writeU64(MagicVectors); err != nil {
			return err
		}
		if err := bw.writeU64(uint64(n)); err != nil {
			return err
		}
		if err := bw.writeU64(uint64(dim)); err != nil {
			return err
		}

		for i := 0; i < n; i++ {
			vec := s.Vector(i)
			if vec == nil {
				// Dead slot: search never reads these bytes, zero-pad.
				vec = zeros
			}
			if err := bw.writeFloat32Slice(vec); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveAlive(dir string, s *vectorstore.Store) error {
	n := s.Size()

	return saveToFile(filepath.Join(dir, AliveFileName), func(w io.Writer) error {
		bw := newBinaryWriter(w)
		if err := bw.writeU64(MagicAlive); err != nil {
			return err
		}
		if err := bw.writeU64(uint64(n)); err != nil {
			return err
		}

		flags := make([]byte, n)
		for i := 0; i < n; i++ {
			if s.IsAlive(i) {
				flags[i] = 1
			}
		}
		_, err := w.Write(flags)
		return err
	})
}

func saveIDs(dir string, s *vectorstore.Store) error {
	n := s.Size()

	return saveToFile(filepath.Join(dir, IDsFileName), func(w io.Writer) error {
		for i := 0; i < n; i++ {
			if _, err := io.WriteString(w, s.IDAt(i)); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveMeta(dir string, s *vectorstore.Store) error {
	n := s.Size()

	return saveToFile(filepath.Join(dir, MetaFileName), func(w io.Writer) error {
		for i := 0; i < n; i++ {
			if _, err := io.WriteString(w, metadata.Encode(s.MetadataAt(i))); err != nil {
				return err
			}
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadStore reads the store sections from dir and rebuilds s.
// A missing meta.txt is accepted for pre-metadata archives and yields empty
// metadata per slot.
func LoadStore(dir string, s *vectorstore.Store) error {
	var (
		n       int
		vectors []float32
	)

	err := loadFromFile(filepath.Join(dir, VectorsFileName), func(r io.Reader) error {
		br := newBinaryReader(r)
		magic, err := br.readU64()
		if err != nil {
			return err
		}
		if magic != MagicVectors {
			return fmt.Errorf("%w: vectors.bin", ErrInvalidMagic)
		}

		count, err := br.readU64()
		if err != nil {
			return err
		}
		dim, err := br.readU64()
		if err != nil {
			return err
		}
		if int(dim) != s.Dim() {
			return fmt.Errorf("%w: manifest dim %d, vectors.bin dim %d", ErrDimMismatch, s.Dim(), dim)
		}

		n = int(count)
		vectors, err = br.readFloat32Slice(n * int(dim))
		return err
	})
	if err != nil {
		return err
	}
	if vectors == nil {
		vectors = []float32{}
	}

	alive := make([]bool, n)
	err = loadFromFile(filepath.Join(dir, AliveFileName), func(r io.Reader) error {
		br := newBinaryReader(r)
		magic, err := br.readU64()
		if err != nil {
			return err
		}
		if magic != MagicAlive {
			return fmt.Errorf("%w: alive.bin", ErrInvalidMagic)
		}

		count, err := br.readU64()
		if err != nil {
			return err
		}
		if int(count) != n {
			return fmt.Errorf("%w: alive.bin has %d slots, vectors.bin has %d", ErrSectionMismatch, count, n)
		}

		flags := make([]byte, n)
		if _, err := io.ReadFull(r, flags); err != nil {
			return err
		}
		for i, f := range flags {
			alive[i] = f != 0
		}
		return nil
	})
	if err != nil {
		return err
	}

	ids, err := readLines(filepath.Join(dir, IDsFileName), n)
	if err != nil {
		return err
	}

	meta := make([]metadata.Metadata, n)
	metaPath := filepath.Join(dir, MetaFileName)
	if _, statErr := os.Stat(metaPath); statErr == nil {
		lines, err := readLines(metaPath, n)
		if err != nil {
			return err
		}
		for i, line := range lines {
			m, err := metadata.Decode(line)
			if err != nil {
				return fmt.Errorf("persistence: meta.txt line %d: %w", i+1, err)
			}
			meta[i] = m
		}
	} else {
		for i := range meta {
			meta[i] = metadata.Metadata{}
		}
	}

	return s.LoadFromDisk(n, vectors, alive, ids, meta)
}

// readLines reads up to n LF-terminated lines, tolerating CRLF and a
// missing final newline. It always returns n entries: when the file holds
// fewer lines, the remaining entries are empty strings and no error is
// reported.
func readLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines := make([]string, n)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, err
			}
			break
		}
		lines[i] = strings.TrimSuffix(sc.Text(), "\r")
	}
	return lines, nil
}
