package vecdb

import (
	"errors"
	"fmt"
	"os"

	"github.com/Schromeo/VecDBMVP/index/hnsw"
	"github.com/Schromeo/VecDBMVP/metadata"
	"github.com/Schromeo/VecDBMVP/persistence"
	"github.com/Schromeo/VecDBMVP/vectorstore"
)

var (
	// ErrInvalidArgument is returned for malformed inputs: bad dimensions,
	// empty ids, unknown metrics, bad filters.
	ErrInvalidArgument = errors.New("vecdb: invalid argument")

	// ErrConflict is returned by Insert when the id is already alive.
	ErrConflict = errors.New("vecdb: conflict")

	// ErrNotReady is returned by unfiltered Search when no index is built.
	ErrNotReady = errors.New("vecdb: index not ready, call BuildIndex or open a collection with a saved index")

	// ErrCorruptState is returned when persisted files disagree with each
	// other or with the manifest.
	ErrCorruptState = errors.New("vecdb: corrupt state")

	// ErrNotFound is returned by Open on a directory without a manifest.
	ErrNotFound = errors.New("vecdb: collection not found")
)

// translateError maps subpackage errors onto the public taxonomy. Filesystem
// errors pass through untouched so callers keep os-level context.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Argument validation.
	var storeDim *vectorstore.ErrDimensionMismatch
	var graphDim *hnsw.ErrDimensionMismatch
	switch {
	case errors.Is(err, vectorstore.ErrInvalidDimension),
		errors.Is(err, vectorstore.ErrEmptyID),
		errors.As(err, &storeDim),
		errors.As(err, &graphDim):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	// Conflicts.
	if errors.Is(err, vectorstore.ErrIDExists) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}

	// Corruption.
	var storeSnap *vectorstore.ErrSnapshotMismatch
	var graphSnap *hnsw.ErrSnapshotMismatch
	var graphLinks *hnsw.ErrLinkListMismatch
	switch {
	case errors.Is(err, persistence.ErrInvalidMagic),
		errors.Is(err, persistence.ErrSectionMismatch),
		errors.Is(err, persistence.ErrManifestDim),
		errors.Is(err, persistence.ErrDimMismatch),
		errors.Is(err, metadata.ErrTrailingEscape),
		errors.As(err, &storeSnap),
		errors.As(err, &graphSnap),
		errors.As(err, &graphLinks):
		return fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	return err
}

// translateOpenError additionally maps a missing manifest to ErrNotFound.
func translateOpenError(err error) error {
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return translateError(err)
}
