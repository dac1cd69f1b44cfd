package paging

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/rzbill/multipart/pkg/keys"
)

var errBoom = errors.New("boom")

func testMasterKey() []byte {
	b := make([]byte, keys.MasterKeySize)
	for i := range b {
		b[i] = byte(0xa0 + i)
	}
	return b
}

func testData(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + i/256)
	}
	return b
}

type memLog struct {
	mu        sync.Mutex
	key       keys.PublicKey
	blocks    [][]byte
	ready     int
	appendErr error
}

func (l *memLog) Ready(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ready++
	return nil
}

func (l *memLog) Append(ctx context.Context, block []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return l.appendErr
	}
	l.blocks = append(l.blocks, append([]byte(nil), block...))
	return nil
}

func (l *memLog) bytes() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return bytes.Join(l.blocks, nil)
}

type memStore struct {
	mu         sync.Mutex
	logs       map[keys.PublicKey]*memLog
	gets       int
	readyCalls int
	readyErr   error
	appendErrs map[keys.PublicKey]error
}

func newMemStore() *memStore {
	return &memStore{logs: map[keys.PublicKey]*memLog{}, appendErrs: map[keys.PublicKey]error{}}
}

func (s *memStore) Ready(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readyCalls++
	return s.readyErr
}

func (s *memStore) Get(ctx context.Context, kp keys.KeyPair) (Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if l, ok := s.logs[kp.PublicKey]; ok {
		return l, nil
	}
	l := &memLog{key: kp.PublicKey, appendErr: s.appendErrs[kp.PublicKey]}
	s.logs[kp.PublicKey] = l
	return l, nil
}

func (s *memStore) log(pub keys.PublicKey) *memLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logs[pub]
}

// memSource serves data and records every requested length.
type memSource struct {
	mu       sync.Mutex
	data     []byte
	maxChunk int
	reads    []int
}

func (s *memSource) ReadAt(ctx context.Context, offset uint64, length int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads = append(s.reads, length)
	if offset >= uint64(len(s.data)) {
		return nil, nil
	}
	if s.maxChunk > 0 && length > s.maxChunk {
		length = s.maxChunk
	}
	end := offset + uint64(length)
	if end > uint64(len(s.data)) {
		end = uint64(len(s.data))
	}
	return append([]byte(nil), s.data[offset:end]...), nil
}

func (s *memSource) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reads)
}

// statSource adds a known size to memSource.
type statSource struct {
	*memSource
	statErr error
}

func (s statSource) Stat(ctx context.Context) (*Stats, error) {
	if s.statErr != nil {
		return nil, s.statErr
	}
	return &Stats{Size: uint64(len(s.data))}, nil
}
