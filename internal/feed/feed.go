package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rzbill/multipart/internal/codec"
	pebblestore "github.com/rzbill/multipart/internal/storage/pebble"
	"github.com/rzbill/multipart/pkg/keys"
)

// meta is the persisted per-feed header.
type meta struct {
	Length      uint64 `json:"length"`
	ByteLength  uint64 `json:"byteLength"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// Feed is an append-only block log addressed by a public key.
type Feed struct {
	store *Store
	pub   keys.PublicKey

	mu         sync.Mutex
	key        keys.KeyPair
	ready      bool
	exists     bool
	length     uint64
	byteLength uint64
	created    time.Time
	notifyCh   chan struct{}
}

func newFeed(s *Store, kp keys.KeyPair) *Feed {
	return &Feed{store: s, pub: kp.PublicKey, key: kp, notifyCh: make(chan struct{})}
}

// upgrade installs a secret key on a feed opened by public key.
func (f *Feed) upgrade(kp keys.KeyPair) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.key.CanSign() {
		f.key = kp
	}
}

// Key returns the feed's public key.
func (f *Feed) Key() keys.PublicKey { return f.pub }

// Writable reports whether the feed holds its secret key.
func (f *Feed) Writable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.key.CanSign()
}

// Ready loads the feed's metadata. Writable feeds that do not exist yet are
// created. Read-only feeds that do not exist locally are empty.
func (f *Feed) Ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.readyLocked(ctx)
}

func (f *Feed) readyLocked(ctx context.Context) error {
	if f.ready {
		return nil
	}
	raw, err := f.store.db.Get(KeyFeedMeta(f.pub))
	switch {
	case err == nil:
		var m meta
		if err := codec.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("%w: feed %s meta: %v", ErrCorrupt, f.pub.Short(), err)
		}
		f.length, f.byteLength = m.Length, m.ByteLength
		f.created = time.UnixMilli(m.CreatedAtMs)
		f.exists = true
	case errors.Is(err, pebblestore.ErrNotFound):
		if f.key.CanSign() {
			f.created = time.Now()
			if err := f.writeMeta(ctx, nil); err != nil {
				return err
			}
			f.exists = true
		}
	default:
		return err
	}
	f.ready = true
	return nil
}

func (f *Feed) writeMeta(ctx context.Context, m *meta) error {
	if m == nil {
		m = &meta{Length: f.length, ByteLength: f.byteLength, CreatedAtMs: f.created.UnixMilli()}
	}
	b, err := codec.Marshal(m)
	if err != nil {
		return err
	}
	batch := f.store.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(KeyFeedMeta(f.pub), b, nil); err != nil {
		return err
	}
	return f.store.db.CommitBatch(ctx, batch)
}

// Exists reports whether the feed has been persisted. Valid after Ready.
func (f *Feed) Exists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists
}

// Len returns the number of blocks.
func (f *Feed) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.length
}

// ByteLength returns the total uncompressed size of all blocks.
func (f *Feed) ByteLength() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byteLength
}

// Append appends blocks as a single atomic batch and returns the index of
// the first one. Empty blocks are rejected.
func (f *Feed) Append(ctx context.Context, blocks ...[]byte) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.key.CanSign() {
		return 0, ErrReadOnly
	}
	if err := f.readyLocked(ctx); err != nil {
		return 0, err
	}
	if len(blocks) == 0 {
		return f.length, nil
	}

	b := f.store.db.NewBatch()
	defer b.Close()

	first := f.length
	index := f.length
	var added uint64
	for _, data := range blocks {
		if len(data) == 0 {
			return 0, errors.New("feed: empty block")
		}
		stored, used, err := compressBlock(data, f.store.opts.Compression)
		if err != nil {
			return 0, err
		}
		h := blockHeader{
			Compression: used,
			RawLen:      len(data),
			Signature:   f.key.Sign(signedMessage(f.pub, index, data)),
		}
		if err := b.Set(KeyFeedEntry(f.pub, index), EncodeRecord(h.encode(), stored), nil); err != nil {
			return 0, err
		}
		index++
		added += uint64(len(data))
	}

	m := meta{Length: index, ByteLength: f.byteLength + added, CreatedAtMs: f.created.UnixMilli()}
	mb, err := codec.Marshal(&m)
	if err != nil {
		return 0, err
	}
	if err := b.Set(KeyFeedMeta(f.pub), mb, nil); err != nil {
		return 0, err
	}
	if err := f.store.db.CommitBatch(ctx, b); err != nil {
		return 0, err
	}

	f.length = m.Length
	f.byteLength = m.ByteLength
	close(f.notifyCh)
	f.notifyCh = make(chan struct{})
	return first, nil
}
