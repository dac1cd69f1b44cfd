package feed

import (
	"crypto/ed25519"
	"encoding/binary"
	"hash/crc32"
	"math"
)

// Record encoding: uvarint headerLen | header | payload | crc32c(header|payload)
// Block header: compression tag (1B) | uvarint rawLen | signature (64B)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func EncodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(payload)+4)
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(header)))
	out = append(out, tmp[:n]...)
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	out = append(out, crcb[:]...)
	return out
}

type Decoded struct {
	Header  []byte
	Payload []byte
}

func DecodeRecord(b []byte) (Decoded, bool) {
	if len(b) < 1+4 {
		return Decoded{}, false
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || n > len(b)-4 {
		return Decoded{}, false
	}
	if hlen > uint64(len(b)-n-4) {
		return Decoded{}, false
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return Decoded{}, false
	}
	return Decoded{Header: append([]byte(nil), header...), Payload: append([]byte(nil), payload...)}, true
}

// blockHeader describes how a block's payload is stored.
type blockHeader struct {
	Compression Compression
	RawLen      int
	Signature   []byte
}

func (h blockHeader) encode() []byte {
	out := make([]byte, 0, 1+binary.MaxVarintLen64+ed25519.SignatureSize)
	out = append(out, byte(h.Compression))
	out = binary.AppendUvarint(out, uint64(h.RawLen))
	out = append(out, h.Signature...)
	return out
}

func decodeBlockHeader(b []byte) (blockHeader, bool) {
	if len(b) < 2 {
		return blockHeader{}, false
	}
	rawLen, n := binary.Uvarint(b[1:])
	if n <= 0 || rawLen > math.MaxInt32 {
		return blockHeader{}, false
	}
	sig := b[1+n:]
	if len(sig) != ed25519.SignatureSize {
		return blockHeader{}, false
	}
	return blockHeader{Compression: Compression(b[0]), RawLen: int(rawLen), Signature: sig}, true
}
