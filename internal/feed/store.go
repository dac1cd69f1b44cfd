package feed

import (
	"context"
	"errors"
	"sync"

	pebblestore "github.com/rzbill/multipart/internal/storage/pebble"
	"github.com/rzbill/multipart/pkg/keys"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

var (
	// ErrNotFound is returned when reading a block past the end of a feed.
	ErrNotFound = errors.New("feed: block not found")
	// ErrReadOnly is returned when appending without the feed's secret key.
	ErrReadOnly = errors.New("feed: feed is read-only")
	// ErrCorrupt is returned when a stored block fails its checksum or signature.
	ErrCorrupt = errors.New("feed: corrupt block")
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("feed: store closed")
)

// Options configures a Store.
type Options struct {
	// Compression applied to appended blocks. Blocks that do not shrink are
	// stored uncompressed regardless.
	Compression Compression
	// Logger receives feed lifecycle events. Optional.
	Logger logpkg.Logger
}

// Store hands out feeds addressed by public key. It is safe for concurrent
// use; the same key always yields the same *Feed.
type Store struct {
	db     *pebblestore.DB
	opts   Options
	logger logpkg.Logger

	readyOnce sync.Once
	readyErr  error

	mu     sync.Mutex
	feeds  map[keys.PublicKey]*Feed
	closed bool
}

// Open returns a Store backed by db. The caller keeps ownership of db.
func Open(db *pebblestore.DB, opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Store{
		db:     db,
		opts:   opts,
		logger: logger.WithComponent("feed"),
		feeds:  make(map[keys.PublicKey]*Feed),
	}
}

// Ready verifies the backing database is usable. Safe to call repeatedly.
func (s *Store) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.readyOnce.Do(func() {
		if s.db == nil {
			s.readyErr = errors.New("feed: store has no database")
			return
		}
		it, err := s.db.NewIter(nil)
		if err != nil {
			s.readyErr = err
			return
		}
		s.readyErr = it.Close()
	})
	return s.readyErr
}

// Get returns the feed for kp. When kp carries a secret key the feed is
// writable, including a feed previously opened read-only by public key.
func (s *Store) Get(ctx context.Context, kp keys.KeyPair) (*Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if f, ok := s.feeds[kp.PublicKey]; ok {
		if kp.CanSign() {
			f.upgrade(kp)
		}
		return f, nil
	}
	f := newFeed(s, kp)
	s.feeds[kp.PublicKey] = f
	s.logger.Debug("feed opened", logpkg.Str("key", kp.PublicKey.Short()), logpkg.Bool("writable", kp.CanSign()))
	return f, nil
}

// GetByKey returns a read-only view for pub, or the writable feed if one is
// already open in this store.
func (s *Store) GetByKey(ctx context.Context, pub keys.PublicKey) (*Feed, error) {
	return s.Get(ctx, keys.KeyPair{PublicKey: pub})
}

// Keys lists the public keys of every feed persisted in the database.
func (s *Store) Keys() ([]keys.PublicKey, error) {
	var out []keys.PublicKey
	err := s.db.ScanPrefix(feedPrefix, func(k, _ []byte) bool {
		if pub, ok := parseMetaKey(k); ok {
			out = append(out, pub)
		}
		return true
	})
	return out, err
}

// Close releases feed handles. It does not close the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.feeds = map[keys.PublicKey]*Feed{}
	return nil
}
