package persistence

import "errors"

// File names inside a collection directory.
const (
	ManifestFileName = "manifest.json"
	VectorsFileName  = "vectors.bin"
	AliveFileName    = "alive.bin"
	IDsFileName      = "ids.txt"
	MetaFileName     = "meta.txt"
	GraphFileName    = "hnsw.bin"
)

const (
	// MagicVectors identifies vectors.bin.
	MagicVectors uint64 = 0x31565F434556
	// MagicAlive identifies alive.bin.
	MagicAlive uint64 = 0x31565F564C41

	// CurrentVersion is the on-disk format version.
	CurrentVersion = 1
)

// graphMagic is the 8-byte prefix of hnsw.bin.
var graphMagic = [8]byte{'H', 'N', 'S', 'W', 'v', '1', 0, 0}

var (
	// ErrInvalidMagic is returned when a binary file starts with the wrong
	// magic constant.
	ErrInvalidMagic = errors.New("persistence: invalid magic number")

	// ErrSectionMismatch is returned when sections of a snapshot disagree on
	// the slot count.
	ErrSectionMismatch = errors.New("persistence: section length mismatch")

	// ErrManifestDim is returned when the manifest carries a zero dimension.
	ErrManifestDim = errors.New("persistence: manifest dim invalid")

	// ErrDimMismatch is returned when vectors.bin disagrees with the store
	// dimension.
	ErrDimMismatch = errors.New("persistence: vectors.bin dim mismatch")
)
