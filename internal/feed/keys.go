package feed

import (
	"encoding/binary"

	"github.com/rzbill/multipart/pkg/keys"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - feed/{pub32}/m
// - feed/{pub32}/e/{index_be8}

var (
	feedPrefix = []byte("feed/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
)

const pubLen = len(keys.PublicKey{})

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyFeedMeta builds the feed metadata key.
func KeyFeedMeta(pub keys.PublicKey) []byte {
	k := make([]byte, 0, len(feedPrefix)+pubLen+len(metaSuffix))
	k = append(k, feedPrefix...)
	k = append(k, pub[:]...)
	k = append(k, metaSuffix...)
	return k
}

// KeyFeedEntry builds the block key with a big-endian index for ordering.
func KeyFeedEntry(pub keys.PublicKey, index uint64) []byte {
	k := make([]byte, 0, len(feedPrefix)+pubLen+len(entrySeg)+8)
	k = append(k, feedPrefix...)
	k = append(k, pub[:]...)
	k = append(k, entrySeg...)
	k = appendBE8(k, index)
	return k
}

// parseMetaKey extracts the public key from a metadata key.
func parseMetaKey(k []byte) (keys.PublicKey, bool) {
	var pub keys.PublicKey
	if len(k) != len(feedPrefix)+pubLen+len(metaSuffix) {
		return pub, false
	}
	if string(k[len(k)-len(metaSuffix):]) != string(metaSuffix) {
		return pub, false
	}
	copy(pub[:], k[len(feedPrefix):len(feedPrefix)+pubLen])
	return pub, true
}

// signedMessage is the byte string a block signature covers.
func signedMessage(pub keys.PublicKey, index uint64, data []byte) []byte {
	msg := make([]byte, 0, pubLen+8+len(data))
	msg = append(msg, pub[:]...)
	msg = appendBE8(msg, index)
	msg = append(msg, data...)
	return msg
}
