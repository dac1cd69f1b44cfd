package paging

import (
	"context"

	"github.com/rzbill/multipart/pkg/keys"
)

// Source reads the stream being partitioned. ReadAt returns up to length
// bytes starting at offset; an empty result means end of stream.
type Source interface {
	ReadAt(ctx context.Context, offset uint64, length int) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, offset uint64, length int) ([]byte, error)

func (f SourceFunc) ReadAt(ctx context.Context, offset uint64, length int) ([]byte, error) {
	return f(ctx, offset, length)
}

// Stats describes the source. A nil *Stats means the size is unknown.
type Stats struct {
	Size uint64 `json:"size"`
}

// Stater reports the total source size. Optional.
type Stater interface {
	Stat(ctx context.Context) (*Stats, error)
}

// Store hands out append-only logs addressed by a keypair's public key.
// Implementations must be safe for concurrent use by multiple sessions.
type Store interface {
	// Ready is called once per session before the first read.
	Ready(ctx context.Context) error
	Get(ctx context.Context, kp keys.KeyPair) (Log, error)
}

// Log is one page's append-only log.
type Log interface {
	Ready(ctx context.Context) error
	Append(ctx context.Context, block []byte) error
}

// PageLog pairs a page number with the log created for it.
type PageLog struct {
	Page uint64
	Key  keys.PublicKey
	Log  Log
}
