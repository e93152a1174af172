package blobstore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/one", strings.NewReader("hello")))
	require.NoError(t, s.Put(ctx, "a/two", strings.NewReader("world")))
	require.NoError(t, s.Put(ctx, "b/three", strings.NewReader("!")))

	r, err := s.Get(ctx, "a/one")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(data))

	_, err = s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	names, err := s.List(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one", "a/two"}, names)

	require.NoError(t, s.Delete(ctx, "a/one"))
	require.NoError(t, s.Delete(ctx, "a/one")) // idempotent
	_, err = s.Get(ctx, "a/one")
	require.ErrorIs(t, err, ErrNotFound)

	// Put replaces existing content.
	require.NoError(t, s.Put(ctx, "a/two", strings.NewReader("replaced")))
	r, err = s.Get(ctx, "a/two")
	require.NoError(t, err)
	data, _ = io.ReadAll(r)
	_ = r.Close()
	assert.Equal(t, "replaced", string(data))
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	testStore(t, s)
}
