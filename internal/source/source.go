// Package source provides paging sources over memory, files and
// sequential readers.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rzbill/multipart/internal/paging"
)

// ErrNonSequential is returned by Stream when asked for an offset other
// than the one following the previous read.
var ErrNonSequential = errors.New("source: stream reads must be sequential")

// Bytes serves an in-memory buffer. Returned chunks alias the buffer.
type Bytes struct{ b []byte }

func NewBytes(b []byte) *Bytes { return &Bytes{b: b} }

func (s *Bytes) ReadAt(ctx context.Context, offset uint64, length int) ([]byte, error) {
	if offset >= uint64(len(s.b)) || length <= 0 {
		return nil, nil
	}
	end := offset + uint64(length)
	if end > uint64(len(s.b)) {
		end = uint64(len(s.b))
	}
	return s.b[offset:end:end], nil
}

func (s *Bytes) Stat(ctx context.Context) (*paging.Stats, error) {
	return &paging.Stats{Size: uint64(len(s.b))}, nil
}

// File serves an *os.File with a known size.
type File struct {
	f     *os.File
	owned bool
}

// NewFile wraps f. The caller keeps ownership.
func NewFile(f *os.File) *File { return &File{f: f} }

// OpenFile opens path for reading. Close releases it.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", path, err)
	}
	return &File{f: f, owned: true}, nil
}

func (s *File) ReadAt(ctx context.Context, offset uint64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	n, err := s.f.ReadAt(buf, int64(offset))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("source: read %s at %d: %w", s.f.Name(), offset, err)
	}
	return buf[:n], nil
}

func (s *File) Stat(ctx context.Context) (*paging.Stats, error) {
	fi, err := s.f.Stat()
	if err != nil {
		return nil, fmt.Errorf("source: stat %s: %w", s.f.Name(), err)
	}
	if !fi.Mode().IsRegular() {
		return nil, nil
	}
	return &paging.Stats{Size: uint64(fi.Size())}, nil
}

func (s *File) Close() error {
	if !s.owned {
		return nil
	}
	return s.f.Close()
}

// Stream serves a sequential reader of unknown size, such as stdin. Each
// read fills the requested length unless the reader ends first.
type Stream struct {
	mu  sync.Mutex
	r   io.Reader
	pos uint64
}

// NewStream wraps r. start is the offset of r's first byte.
func NewStream(r io.Reader, start uint64) *Stream { return &Stream{r: r, pos: start} }

func (s *Stream) ReadAt(ctx context.Context, offset uint64, length int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset != s.pos {
		return nil, fmt.Errorf("%w: at %d, asked for %d", ErrNonSequential, s.pos, offset)
	}
	buf := make([]byte, length)
	n, err := io.ReadFull(s.r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("source: stream read at %d: %w", offset, err)
	}
	s.pos += uint64(n)
	return buf[:n], nil
}

// Skip discards n bytes so a resumed session can start past them.
func (s *Stream) Skip(n uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := io.CopyN(io.Discard, s.r, int64(n))
	s.pos += uint64(m)
	if err != nil {
		return fmt.Errorf("source: skip %d bytes: %w", n, err)
	}
	return nil
}
