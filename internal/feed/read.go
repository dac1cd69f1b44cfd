package feed

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/rzbill/multipart/internal/storage/pebble"
)

// Token encodes a resume position as a block index (8 bytes big-endian).
type Token [8]byte

// TokenFromIndex builds a token that resumes at index.
func TokenFromIndex(index uint64) Token {
	var t Token
	binary.BigEndian.PutUint64(t[:], index)
	return t
}

func (t Token) Index() uint64 { return binary.BigEndian.Uint64(t[:]) }

type ReadOptions struct {
	Start Token // zero begins from the first block
	Limit int   // zero means no limit
}

type Item struct {
	Index uint64
	Data  []byte
}

// Get returns the block at index.
func (f *Feed) Get(index uint64) ([]byte, error) {
	raw, err := f.store.db.Get(KeyFeedEntry(f.pub, index))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s[%d]", ErrNotFound, f.pub.Short(), index)
		}
		return nil, err
	}
	return f.decodeBlock(index, raw)
}

// GetBatch returns blocks [start, end) in order.
func (f *Feed) GetBatch(start, end uint64) ([][]byte, error) {
	if end <= start {
		return nil, nil
	}
	items, _, err := f.Read(ReadOptions{Start: TokenFromIndex(start), Limit: int(end - start)})
	if err != nil {
		return nil, err
	}
	if uint64(len(items)) != end-start {
		return nil, fmt.Errorf("%w: %s has %d of %d requested blocks", ErrNotFound, f.pub.Short(), len(items), end-start)
	}
	out := make([][]byte, len(items))
	for i, it := range items {
		if it.Index != start+uint64(i) {
			return nil, fmt.Errorf("%w: %s missing block %d", ErrNotFound, f.pub.Short(), start+uint64(i))
		}
		out[i] = it.Data
	}
	return out, nil
}

// Read returns up to Limit blocks starting at Start (inclusive) and a token
// for the next unread block. Every block is verified before it is returned.
func (f *Feed) Read(opts ReadOptions) ([]Item, Token, error) {
	pub := f.pub
	low := KeyFeedEntry(pub, 0)
	hi := KeyFeedEntry(pub, ^uint64(0))
	startKey := KeyFeedEntry(pub, opts.Start.Index())

	items := make([]Item, 0, max(1, opts.Limit))
	next := opts.Start

	iter, err := f.store.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: append(hi, 0x00)})
	if err != nil {
		return items, next, err
	}
	defer iter.Close()

	for valid := iter.SeekGE(startKey); valid && (opts.Limit == 0 || len(items) < opts.Limit); valid = iter.Next() {
		key := iter.Key()
		index := binary.BigEndian.Uint64(key[len(key)-8:])
		data, err := f.decodeBlock(index, iter.Value())
		if err != nil {
			return items, next, err
		}
		items = append(items, Item{Index: index, Data: data})
		next = TokenFromIndex(index + 1)
	}
	return items, next, iter.Error()
}

func (f *Feed) decodeBlock(index uint64, raw []byte) ([]byte, error) {
	rec, ok := DecodeRecord(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %s[%d] checksum", ErrCorrupt, f.pub.Short(), index)
	}
	h, ok := decodeBlockHeader(rec.Header)
	if !ok {
		return nil, fmt.Errorf("%w: %s[%d] header", ErrCorrupt, f.pub.Short(), index)
	}
	data, err := decompressBlock(rec.Payload, h.Compression, h.RawLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %s[%d]: %v", ErrCorrupt, f.pub.Short(), index, err)
	}
	if !f.pub.Verify(signedMessage(f.pub, index, data), h.Signature) {
		return nil, fmt.Errorf("%w: %s[%d] signature", ErrCorrupt, f.pub.Short(), index)
	}
	return data, nil
}
