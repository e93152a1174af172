// Package backup writes and restores a single-file archive of a persisted
// collection directory. The archive is a fixed magic followed by an
// lz4-framed stream of length-prefixed entries covering exactly the codec's
// known file set.
//
// Restoring overwrites the target directory's collection files; a collection
// should be reopened afterwards.
package backup

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"

	"github.com/Schromeo/VecDBMVP/persistence"
)

// archiveMagic prefixes every backup file, before compression starts.
var archiveMagic = [8]byte{'V', 'D', 'B', 'K', '1', 0, 0, 0}

var (
	// ErrInvalidArchive is returned for a stream that does not start with
	// the backup magic or carries malformed entries.
	ErrInvalidArchive = errors.New("backup: invalid archive")

	// ErrUnknownEntry is returned when an archive names a file outside the
	// codec's file set.
	ErrUnknownEntry = errors.New("backup: unknown archive entry")
)

// archivable is the codec file set eligible for backup; the graph file is
// included only when present.
var archivable = []string{
	persistence.ManifestFileName,
	persistence.VectorsFileName,
	persistence.AliveFileName,
	persistence.IDsFileName,
	persistence.MetaFileName,
	persistence.GraphFileName,
}

func isArchivable(name string) bool {
	for _, n := range archivable {
		if n == name {
			return true
		}
	}
	return false
}

// Write streams an archive of the collection directory to w.
func Write(dir string, w io.Writer) error {
	if !persistence.ManifestExists(dir) {
		return fmt.Errorf("backup: no collection at %s: %w", dir, os.ErrNotExist)
	}

	if _, err := w.Write(archiveMagic[:]); err != nil {
		return err
	}

	zw := lz4.NewWriter(w)
	for _, name := range archivable {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}

		if err := writeEntry(zw, name, path, info.Size()); err != nil {
			return err
		}
	}

	// A zero name length terminates the entry stream.
	if err := binary.Write(zw, binary.LittleEndian, uint32(0)); err != nil {
		return err
	}
	return zw.Close()
}

func writeEntry(w io.Writer, name, path string, size int64) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(name))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, name); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(size)); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	// lz4.Writer.ReadFrom only tolerates being the first write to the
	// stream, so hide it behind a plain io.Writer to keep io.Copy from
	// using that fast path once the entry header has already been
	// written with w.Write.
	n, err := io.Copy(struct{ io.Writer }{w}, f)
	if err != nil {
		return err
	}
	if n != size {
		return fmt.Errorf("backup: %s changed while archiving: wrote %d of %d bytes", name, n, size)
	}
	return nil
}

// Read restores an archive into dir, creating it if needed. Entries outside
// the codec file set are rejected. A graph entry absent from the archive
// removes any stale local graph file.
func Read(r io.Reader, dir string) error {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	if magic != archiveMagic {
		return ErrInvalidArchive
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	zr := lz4.NewReader(r)
	seen := make(map[string]bool)
	for {
		var nameLen uint32
		if err := binary.Read(zr, binary.LittleEndian, &nameLen); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArchive, err)
		}
		if nameLen == 0 {
			break
		}
		if nameLen > 4096 {
			return ErrInvalidArchive
		}

		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(zr, nameBuf); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArchive, err)
		}
		name := string(nameBuf)
		if !isArchivable(name) {
			return fmt.Errorf("%w: %q", ErrUnknownEntry, name)
		}

		var size uint64
		if err := binary.Read(zr, binary.LittleEndian, &size); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArchive, err)
		}

		if err := readEntry(zr, filepath.Join(dir, name), int64(size)); err != nil {
			return err
		}
		seen[name] = true
	}

	if !seen[persistence.GraphFileName] {
		return persistence.RemoveGraph(dir)
	}
	return nil
}

func readEntry(r io.Reader, path string, size int64) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.CopyN(tmp, r, size); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	tmpName = ""
	return nil
}

// WriteFile archives the collection directory to a file.
func WriteFile(dir, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Write(dir, f); err != nil {
		return err
	}
	return f.Sync()
}

// ReadFile restores an archive file into dir.
func ReadFile(path, dir string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Read(f, dir)
}
