package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rzbill/multipart/internal/manifest"
	"github.com/rzbill/multipart/internal/paging"
	"github.com/rzbill/multipart/internal/reader"
	"github.com/rzbill/multipart/pkg/keys"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

// WriteOptions describes a named write. Zero sizes and an empty namespace
// fall back to the runtime config.
type WriteOptions struct {
	Name       string
	Source     paging.Source
	MasterKey  []byte
	Namespace  string
	BufferSize int
	PageSize   uint64
	Offset     uint64
	// OnPage is called after the manifest checkpoint for each entered page.
	OnPage func(page uint64, key keys.PublicKey)
}

// WriteResult reports a finished write.
type WriteResult struct {
	Manifest  manifest.Manifest
	MasterKey keys.MasterKey
	Result    paging.Result
}

// ErrCannotResume is returned when a write at a non-zero offset does not
// continue the pages already recorded under its name.
var ErrCannotResume = errors.New("runtime: cannot resume")

// Write pages a source into the feed store under name, checkpointing the
// manifest whenever a page settles and again at the end. Resuming with
// Offset keeps the keys recorded for earlier pages; they must derive from
// the same master key, namespace and page size.
func (r *Runtime) Write(ctx context.Context, opts WriteOptions) (WriteResult, error) {
	cfg := paging.DefaultConfig()
	cfg.Namespace = firstNonEmpty(opts.Namespace, r.config.Paging.Namespace)
	cfg.BufferSize = opts.BufferSize
	if cfg.BufferSize == 0 {
		cfg.BufferSize = r.config.Paging.BufferSize
	}
	cfg.PageSize = opts.PageSize
	if cfg.PageSize == 0 {
		cfg.PageSize = r.config.Paging.PageSize
	}
	cfg.Offset = opts.Offset
	cfg.MasterKey = opts.MasterKey
	cfg.Source = opts.Source
	cfg.Store = r.PageStore()
	cfg.Logger = r.logger
	if err := cfg.Validate(); err != nil {
		return WriteResult{}, err
	}

	m, err := r.LoadManifest(opts.Name)
	if err != nil && !errors.Is(err, manifest.ErrNotFound) {
		return WriteResult{}, err
	}
	if opts.Offset > 0 && len(m.PublicKeys) > 0 && (m.PageSize != cfg.PageSize || m.Namespace != cfg.Namespace) {
		return WriteResult{}, fmt.Errorf("%w: %s must use page size %d and namespace %q", ErrCannotResume, opts.Name, m.PageSize, m.Namespace)
	}
	existing, err := m.Keys()
	if err != nil {
		return WriteResult{}, err
	}
	firstPage := opts.Offset/cfg.PageSize + 1
	if err := checkResume(opts.Name, cfg, existing, firstPage); err != nil {
		return WriteResult{}, err
	}
	existing = existing[:firstPage-1]
	if m.Name == "" {
		if m, err = r.EnsureManifest(opts.Name); err != nil {
			return WriteResult{}, err
		}
	}

	// callbacks run on the session goroutine; mu guards m for the final save
	var mu sync.Mutex
	pubs := append([]keys.PublicKey(nil), existing...)
	m.Namespace, m.PageSize, m.BufferSize = cfg.Namespace, cfg.PageSize, cfg.BufferSize
	m.Offset, m.Complete = opts.Offset, false

	cfg.OnPage = func(page uint64, l paging.Log) {
		var pub keys.PublicKey
		if f, ok := paging.FeedOf(l); ok {
			pub = f.Key()
		}
		mu.Lock()
		// pages are entered in order starting at firstPage
		if uint64(len(pubs)) >= page {
			pubs = pubs[:page-1]
		}
		pubs = append(pubs, pub)
		m.SetKeys(pubs)
		err := r.SaveManifest(&m)
		mu.Unlock()
		if err != nil {
			r.logger.Warn("manifest checkpoint failed", logpkg.Err(err), logpkg.Uint64("page", page))
		}
		if opts.OnPage != nil {
			opts.OnPage(page, pub)
		}
	}
	cfg.OnSettle = func(page uint64, _ paging.Log) {
		mu.Lock()
		m.Offset = page * cfg.PageSize
		err := r.SaveManifest(&m)
		mu.Unlock()
		if err != nil {
			r.logger.Warn("manifest checkpoint failed", logpkg.Err(err), logpkg.Uint64("page", page))
		}
	}

	sess, err := paging.Start(ctx, cfg, nil)
	if err != nil {
		return WriteResult{}, err
	}
	res, runErr := sess.Wait()

	mu.Lock()
	defer mu.Unlock()
	m.Offset = res.Offset
	m.SessionID = sess.ID()
	if st := res.Stats; st != nil {
		m.Size, m.SizeKnown = st.Size, true
	}
	m.Complete = runErr == nil
	if err := r.SaveManifest(&m); err != nil && runErr == nil {
		runErr = err
	}
	return WriteResult{Manifest: m, MasterKey: sess.MasterKey(), Result: res}, runErr
}

// Read reassembles the stream recorded under name. Page addresses are
// derived from master and checked against the manifest.
func (r *Runtime) Read(ctx context.Context, name string, master keys.MasterKey, w io.Writer) (int64, error) {
	m, err := r.LoadManifest(name)
	if err != nil {
		return 0, err
	}
	opts := reader.Options{
		MasterKey:   master,
		Namespace:   m.Namespace,
		PageSize:    m.PageSize,
		Pages:       m.Pages,
		Concurrency: r.config.ReadConcurrency,
		Logger:      r.logger,
	}
	recorded, err := m.Keys()
	if err != nil {
		return 0, err
	}
	for i, pub := range reader.Addresses(opts) {
		if i < len(recorded) && recorded[i] != pub {
			return 0, fmt.Errorf("runtime: master key does not match %s (page %d)", name, i+1)
		}
	}
	return reader.Reassemble(ctx, r.feeds, opts, w)
}

// checkResume verifies that the keys recorded for pages before firstPage
// exist and derive from cfg's master key.
func checkResume(name string, cfg paging.Config, recorded []keys.PublicKey, firstPage uint64) error {
	if firstPage == 1 {
		return nil
	}
	if uint64(len(recorded)) < firstPage-1 {
		return fmt.Errorf("%w: %s records %d pages, offset %d starts at page %d", ErrCannotResume, name, len(recorded), cfg.Offset, firstPage)
	}
	if cfg.MasterKey == nil {
		return fmt.Errorf("%w: %s needs the master key of its earlier pages", ErrCannotResume, name)
	}
	master, err := keys.MasterKeyFromBytes(cfg.MasterKey)
	if err != nil {
		return err
	}
	for i, pub := range recorded[:firstPage-1] {
		page := uint64(i + 1)
		if keys.Derive(cfg.Namespace, master, cfg.PageSize, page).PublicKey != pub {
			return fmt.Errorf("%w: master key does not match %s (page %d)", ErrCannotResume, name, page)
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
