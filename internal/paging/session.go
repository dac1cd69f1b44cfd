package paging

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rzbill/multipart/pkg/keys"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

// Snapshot is a point-in-time view of a session's progress. Values are
// advisory while the session runs and final once State is terminal.
type Snapshot struct {
	State State
	// Offset is the number of source bytes acknowledged by page logs.
	Offset uint64
	// Page is the 1-based page the next chunk will go to.
	Page   uint64
	Blocks uint64
	// Pages is the expected page count when the size is known, otherwise
	// the number of page logs created so far.
	Pages uint64
	Stats *Stats
}

// Result is what a finished session produced.
type Result struct {
	// Logs holds every page log created, in page order.
	Logs   []PageLog
	Offset uint64
	Blocks uint64
	Stats  *Stats
}

// CompletionFunc is called exactly once when a session ends. On failure err
// is the capability's error, unchanged, and logs still lists the page logs
// created before it.
type CompletionFunc func(err error, logs []PageLog)

// Session is one run of the paging pipeline.
type Session struct {
	id         string
	cfg        Config
	master     keys.MasterKey
	logger     logpkg.Logger
	onComplete CompletionFunc

	snap atomic.Pointer[Snapshot]
	done chan struct{}
	res  Result
	err  error

	// owned by the run goroutine
	offset uint64
	page   uint64
	blocks uint64
	stats  *Stats
	cache  *pageCache
}

// Start validates cfg and runs the pipeline on a new goroutine. A config
// error is returned before any I/O. ctx is passed to every capability call;
// the engine itself never interrupts an in-flight call.
func Start(ctx context.Context, cfg Config, onComplete CompletionFunc) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	master, err := resolveMasterKey(cfg.MasterKey)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	id := uuid.NewString()
	s := &Session{
		id:         id,
		cfg:        cfg,
		master:     master,
		logger:     logger.WithComponent("paging").With(logpkg.Str(logpkg.SessionKey, id)),
		onComplete: onComplete,
		done:       make(chan struct{}),
		offset:     cfg.Offset,
		page:       cfg.Offset/cfg.PageSize + 1,
		stats:      cfg.Stats,
	}
	s.cache = newPageCache(cfg, master, s.page)
	s.publish(StateInitializing)

	if cfg.BufferSize > 0 && uint64(cfg.BufferSize) > cfg.PageSize {
		s.logger.Warn("buffer size exceeds page size; reads are capped at the page size",
			logpkg.Int("buffer_size", cfg.BufferSize), logpkg.Uint64("page_size", cfg.PageSize))
	}

	go s.run(ctx)
	return s, nil
}

// Run starts a session and waits for it to finish.
func Run(ctx context.Context, cfg Config) (Result, error) {
	s, err := Start(ctx, cfg, nil)
	if err != nil {
		return Result{}, err
	}
	return s.Wait()
}

func resolveMasterKey(b []byte) (keys.MasterKey, error) {
	if b == nil {
		k, err := keys.GenerateMasterKey()
		if err != nil {
			return keys.MasterKey{}, fmt.Errorf("paging: generate master key: %w", err)
		}
		return k, nil
	}
	k, err := keys.MasterKeyFromBytes(b)
	if err != nil {
		return keys.MasterKey{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return k, nil
}

// publish replaces the snapshot. Called only from the session goroutine
// (and from Start before it is launched).
func (s *Session) publish(state State) {
	pages := s.cache.count()
	if s.stats != nil {
		pages = (s.stats.Size + s.cfg.PageSize - 1) / s.cfg.PageSize
	}
	s.snap.Store(&Snapshot{
		State:  state,
		Offset: s.offset,
		Page:   s.page,
		Blocks: s.blocks,
		Pages:  pages,
		Stats:  s.stats,
	})
}

// ID identifies the session in logs and manifests.
func (s *Session) ID() string { return s.id }

func (s *Session) BufferSize() int           { return s.cfg.BufferSize }
func (s *Session) PageSize() uint64          { return s.cfg.PageSize }
func (s *Session) Namespace() string         { return s.cfg.Namespace }
func (s *Session) MasterKey() keys.MasterKey { return s.master }
func (s *Session) Snapshot() Snapshot        { return *s.snap.Load() }
func (s *Session) State() State              { return s.Snapshot().State }
func (s *Session) Offset() uint64            { return s.Snapshot().Offset }
func (s *Session) Page() uint64              { return s.Snapshot().Page }
func (s *Session) Blocks() uint64            { return s.Snapshot().Blocks }
func (s *Session) Pages() uint64             { return s.Snapshot().Pages }
func (s *Session) Stats() *Stats             { return s.Snapshot().Stats }
func (s *Session) Done() <-chan struct{}     { return s.done }

// KeyPair derives the keypair of page for this session's parameters.
func (s *Session) KeyPair(page uint64) keys.KeyPair {
	return keys.Derive(s.cfg.Namespace, s.master, s.cfg.PageSize, page)
}

// Wait blocks until the session ends.
func (s *Session) Wait() (Result, error) {
	<-s.done
	return s.res, s.err
}
