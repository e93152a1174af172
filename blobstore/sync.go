package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Schromeo/VecDBMVP/persistence"
)

// collectionFiles is the codec's known file set; hnsw.bin is optional.
var collectionFiles = []string{
	persistence.ManifestFileName,
	persistence.VectorsFileName,
	persistence.AliveFileName,
	persistence.IDsFileName,
	persistence.MetaFileName,
}

// SyncOption configures Push and Pull.
type SyncOption func(*syncOptions)

type syncOptions struct {
	limiter *rate.Limiter
}

// WithRateLimit throttles transfers to bytesPerSec.
func WithRateLimit(bytesPerSec int) SyncOption {
	return func(o *syncOptions) {
		if bytesPerSec > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
		}
	}
}

func applySyncOptions(optFns []SyncOption) syncOptions {
	var o syncOptions
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// Push replicates a persisted collection directory into the store under
// prefix. Files upload concurrently; a graph file absent locally is deleted
// remotely so the remote copy never pairs a stale graph with fresh sections.
func Push(ctx context.Context, dst Store, dir, prefix string, optFns ...SyncOption) error {
	opts := applySyncOptions(optFns)

	if !persistence.ManifestExists(dir) {
		return os.ErrNotExist
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range collectionFiles {
		g.Go(func() error {
			return putFile(ctx, dst, filepath.Join(dir, name), path.Join(prefix, name), opts.limiter)
		})
	}
	g.Go(func() error {
		local := filepath.Join(dir, persistence.GraphFileName)
		remote := path.Join(prefix, persistence.GraphFileName)
		if _, err := os.Stat(local); os.IsNotExist(err) {
			return dst.Delete(ctx, remote)
		}
		return putFile(ctx, dst, local, remote, opts.limiter)
	})
	return g.Wait()
}

func putFile(ctx context.Context, dst Store, local, remote string, limiter *rate.Limiter) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()
	return dst.Put(ctx, remote, newRateLimitedReader(ctx, f, limiter))
}

// Pull downloads a collection from the store under prefix into dir, which is
// created if needed. A graph blob missing remotely removes any stale local
// graph file.
func Pull(ctx context.Context, src Store, prefix, dir string, optFns ...SyncOption) error {
	opts := applySyncOptions(optFns)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range collectionFiles {
		g.Go(func() error {
			return getFile(ctx, src, path.Join(prefix, name), filepath.Join(dir, name), opts.limiter)
		})
	}
	g.Go(func() error {
		remote := path.Join(prefix, persistence.GraphFileName)
		local := filepath.Join(dir, persistence.GraphFileName)
		err := getFile(ctx, src, remote, local, opts.limiter)
		if errors.Is(err, ErrNotFound) {
			return persistence.RemoveGraph(dir)
		}
		return err
	})
	return g.Wait()
}

func getFile(ctx context.Context, src Store, remote, local string, limiter *rate.Limiter) error {
	r, err := src.Get(ctx, remote)
	if err != nil {
		return err
	}
	defer r.Close()

	tmp, err := os.CreateTemp(filepath.Dir(local), filepath.Base(local)+".tmp-*")
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

	if _, err := io.Copy(tmp, newRateLimitedReader(ctx, r, limiter)); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, local); err != nil {
		return err
	}
	tmpName = ""
	return nil
}
