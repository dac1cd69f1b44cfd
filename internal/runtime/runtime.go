package runtime

import (
	"context"
	"errors"
	"fmt"

	cfgpkg "github.com/rzbill/multipart/internal/config"
	"github.com/rzbill/multipart/internal/feed"
	"github.com/rzbill/multipart/internal/manifest"
	"github.com/rzbill/multipart/internal/paging"
	pebblestore "github.com/rzbill/multipart/internal/storage/pebble"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// InMemory ignores Config.DataDir and keeps everything in memory.
	InMemory bool
	Logger   logpkg.Logger
	// Metrics observes storage reads and writes. Optional.
	Metrics pebblestore.MetricsHook
}

// Runtime wires storage, the feed store and manifests for one data dir.
type Runtime struct {
	db     *pebblestore.DB
	feeds  *feed.Store
	config cfgpkg.Config
	logger logpkg.Logger
	stats  *StorageStats
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	fsync, err := cfg.FsyncMode()
	if err != nil {
		return nil, err
	}
	compression, err := cfg.CompressionMode()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	stats := &StorageStats{}
	var metrics pebblestore.MetricsHook = stats
	if opts.Metrics != nil {
		metrics = opts.Metrics
	}

	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       cfg.DataDir,
		InMemory:      opts.InMemory,
		Fsync:         fsync,
		FsyncInterval: cfg.FsyncInterval(),
		Metrics:       metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("runtime: open storage: %w", err)
	}
	rt := &Runtime{
		db:     db,
		feeds:  feed.Open(db, feed.Options{Compression: compression, Logger: logger}),
		config: cfg,
		logger: logger.WithComponent("runtime"),
		stats:  stats,
	}
	rt.logger.Debug("runtime opened", logpkg.Str("data_dir", cfg.DataDir), logpkg.Bool("in_memory", opts.InMemory))
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	_ = r.feeds.Close()
	err := r.db.Close()
	r.db = nil
	return err
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("runtime: db not open")
	}
	return r.feeds.Ready(ctx)
}

// Feeds returns the feed store.
func (r *Runtime) Feeds() *feed.Store { return r.feeds }

// PageStore adapts the feed store for paging sessions.
func (r *Runtime) PageStore() paging.Store { return paging.FeedStore(r.feeds) }

// EnsureManifest creates a manifest record if absent.
func (r *Runtime) EnsureManifest(name string) (manifest.Manifest, error) {
	return manifest.Ensure(r.db, name)
}

// LoadManifest reads the manifest for name.
func (r *Runtime) LoadManifest(name string) (manifest.Manifest, error) {
	return manifest.Load(r.db, name)
}

// SaveManifest writes m.
func (r *Runtime) SaveManifest(m *manifest.Manifest) error {
	return manifest.Save(r.db, m)
}

// Manifests lists every manifest.
func (r *Runtime) Manifests() ([]manifest.Manifest, error) {
	return manifest.List(r.db)
}

// DeleteManifest forgets a stream. Its page logs remain addressable by key.
func (r *Runtime) DeleteManifest(name string) error {
	return manifest.Delete(r.db, name)
}

// StorageStats returns the built-in storage counters. They stay at zero
// when Options.Metrics replaced them.
func (r *Runtime) StorageStats() StorageSnapshot { return r.stats.Snapshot() }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
