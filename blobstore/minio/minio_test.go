package minio

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schromeo/VecDBMVP/blobstore"
)

// TestIntegration_MinioStore requires a running MinIO instance.
// Skipped when none is reachable.
func TestIntegration_MinioStore(t *testing.T) {
	endpoint := "localhost:9000"
	bucket := "test-vecdb"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	require.NoError(t, store.Put(ctx, "demo/manifest.json", strings.NewReader(`{"version":1}`)))

	r, err := store.Get(ctx, "demo/manifest.json")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, `{"version":1}`, string(data))

	names, err := store.List(ctx, "demo/")
	require.NoError(t, err)
	assert.Contains(t, names, "demo/manifest.json")

	_, err = store.Get(ctx, "demo/missing")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "demo/manifest.json"))
	require.NoError(t, store.Delete(ctx, "demo/manifest.json"))
	_, err = store.Get(ctx, "demo/manifest.json")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}
