// Package feed implements the append-only page logs that the paging engine
// writes into.
//
// # Overview
//
// A feed is an append-only sequence of blocks addressed by an ed25519 public
// key and persisted in Pebble. Holding the secret key makes a feed writable;
// anyone holding only the public key can open it read-only and verify every
// block. Keys are lexicographically ordered for efficient range scans:
//   - feed/{pub32}/m            (feed metadata, CBOR: length, byteLength, createdAtMs)
//   - feed/{pub32}/e/{index_be8} (blocks, 0-based)
//
// Blocks are stored as records: uvarint headerLen | header | payload |
// crc32c(header|payload). The header carries the compression tag, the
// uncompressed length and an ed25519 signature over pub|index|data.
//
// API surface (internal)
//
//	s := feed.Open(db, feed.Options{Compression: feed.CompressionLZ4})
//	_ = s.Ready(ctx)
//	f, _ := s.Get(ctx, kp)          // writable when kp has a secret key
//	_ = f.Ready(ctx)
//	idx, _ := f.Append(ctx, []byte("block"))
//	data, _ := f.Get(idx)
//
//	r, _ := s.GetByKey(ctx, kp.PublicKey) // read-only view of the same feed
//	blocks, _ := r.GetBatch(0, r.Len())
//
//	// Blocking wait/notify
//	_ = r.WaitForAppend(ctx)
package feed
