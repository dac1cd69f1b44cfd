package source

import (
	"bytes"
	"context"
	"sync"

	"github.com/rzbill/multipart/internal/paging"
	"github.com/rzbill/multipart/pkg/keys"
)

// countingStore records appends in arrival order.
type countingStore struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *countingStore) Ready(context.Context) error { return nil }

func (s *countingStore) Get(context.Context, keys.KeyPair) (paging.Log, error) {
	return countingLog{s: s}, nil
}

func (s *countingStore) all() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.buf.Bytes()...)
}

type countingLog struct{ s *countingStore }

func (l countingLog) Ready(context.Context) error { return nil }

func (l countingLog) Append(_ context.Context, block []byte) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	l.s.buf.Write(block)
	return nil
}
