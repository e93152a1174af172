package blobstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vecdb "github.com/Schromeo/VecDBMVP"
	"github.com/Schromeo/VecDBMVP/persistence"
)

func makeCollection(t *testing.T, dir string, withIndex bool) {
	t.Helper()

	col, err := vecdb.Create(dir, 2)
	require.NoError(t, err)
	_, err = col.Upsert("u1", []float32{1, 0})
	require.NoError(t, err)
	_, err = col.Upsert("u2", []float32{0, 1})
	require.NoError(t, err)
	if withIndex {
		col.BuildIndex()
	}
	require.NoError(t, col.Save())
}

func TestPushPullRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "src")
	dst := filepath.Join(t.TempDir(), "dst")
	makeCollection(t, src, true)

	store := NewMemoryStore()
	require.NoError(t, Push(ctx, store, src, "cols/demo"))

	names, err := store.List(ctx, "cols/demo/")
	require.NoError(t, err)
	assert.Contains(t, names, "cols/demo/manifest.json")
	assert.Contains(t, names, "cols/demo/vectors.bin")
	assert.Contains(t, names, "cols/demo/hnsw.bin")

	require.NoError(t, Pull(ctx, store, "cols/demo", dst))

	col, err := vecdb.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, 2, col.Size())
	assert.True(t, col.HasIndex())

	res, err := col.Search([]float32{0.9, 0.1}, 1, 50)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "u1", res[0].ID)
}

func TestPushDeletesStaleRemoteGraph(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "src")
	makeCollection(t, src, true)

	store := NewMemoryStore()
	require.NoError(t, Push(ctx, store, src, "demo"))

	// Rebuild the directory without an index and push again.
	col, err := vecdb.Open(src)
	require.NoError(t, err)
	_, err = col.Upsert("u3", []float32{1, 1})
	require.NoError(t, err)
	require.NoError(t, col.Save())
	require.False(t, persistence.GraphExists(src))

	require.NoError(t, Push(ctx, store, src, "demo"))
	_, err = store.Get(ctx, "demo/hnsw.bin")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPullRemovesStaleLocalGraph(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "src")
	dst := filepath.Join(t.TempDir(), "dst")

	makeCollection(t, src, false)
	store := NewMemoryStore()
	require.NoError(t, Push(ctx, store, src, "demo"))

	// The destination has an old copy with a graph.
	makeCollection(t, dst, true)
	require.True(t, persistence.GraphExists(dst))

	require.NoError(t, Pull(ctx, store, "demo", dst))
	assert.False(t, persistence.GraphExists(dst))
}

func TestPushMissingManifest(t *testing.T) {
	err := Push(context.Background(), NewMemoryStore(), t.TempDir(), "demo")
	require.Error(t, err)
}

func TestPushPullWithRateLimit(t *testing.T) {
	ctx := context.Background()
	src := filepath.Join(t.TempDir(), "src")
	dst := filepath.Join(t.TempDir(), "dst")
	makeCollection(t, src, true)

	store := NewMemoryStore()
	// Generous limit: exercises the limiter path without slowing the test.
	require.NoError(t, Push(ctx, store, src, "demo", WithRateLimit(64*1024*1024)))
	require.NoError(t, Pull(ctx, store, "demo", dst, WithRateLimit(64*1024*1024)))

	col, err := vecdb.Open(dst)
	require.NoError(t, err)
	assert.Equal(t, 2, col.Size())
}
