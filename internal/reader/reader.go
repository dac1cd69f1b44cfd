// Package reader reassembles a paged stream from its page logs, knowing
// only the master key and the paging parameters.
package reader

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/rzbill/multipart/internal/feed"
	"github.com/rzbill/multipart/pkg/keys"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

const defaultConcurrency = 4

// ErrMissingPage is returned when a derived page log has never been written.
var ErrMissingPage = errors.New("reader: page log not found")

// Options identifies the stream to reassemble.
type Options struct {
	MasterKey keys.MasterKey
	Namespace string
	PageSize  uint64
	// Pages is the number of pages to read, starting at page 1.
	Pages uint64
	// Concurrency bounds how many page logs are fetched at once.
	Concurrency int
	Logger      logpkg.Logger
}

// Addresses returns the public key of each page in order.
func Addresses(opts Options) []keys.PublicKey {
	kps := keys.DerivePages(opts.Namespace, opts.MasterKey, opts.PageSize, opts.Pages)
	out := make([]keys.PublicKey, len(kps))
	for i, kp := range kps {
		out[i] = kp.PublicKey
	}
	return out
}

// Reassemble writes the concatenation of pages 1..Pages to w and returns the
// number of bytes written. Pages are fetched concurrently in windows of
// Concurrency and written strictly in page order.
func Reassemble(ctx context.Context, store *feed.Store, opts Options, w io.Writer) (int64, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	logger = logger.WithComponent("reader")
	window := opts.Concurrency
	if window <= 0 {
		window = defaultConcurrency
	}

	addrs := Addresses(opts)
	var written int64
	for lo := 0; lo < len(addrs); lo += window {
		hi := min(lo+window, len(addrs))
		pages := make([][][]byte, hi-lo)

		g, gctx := errgroup.WithContext(ctx)
		for i := lo; i < hi; i++ {
			i := i
			g.Go(func() error {
				blocks, err := readPage(gctx, store, addrs[i])
				if err != nil {
					return fmt.Errorf("page %d (%s): %w", i+1, addrs[i].Short(), err)
				}
				pages[i-lo] = blocks
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return written, err
		}

		for i, blocks := range pages {
			for _, b := range blocks {
				n, err := w.Write(b)
				written += int64(n)
				if err != nil {
					return written, err
				}
			}
			logger.Debug("page written", logpkg.Int("page", lo+i+1), logpkg.Int("blocks", len(blocks)))
		}
	}
	logger.Info("stream reassembled", logpkg.Uint64("pages", opts.Pages), logpkg.Int64("bytes", written))
	return written, nil
}

func readPage(ctx context.Context, store *feed.Store, pub keys.PublicKey) ([][]byte, error) {
	f, err := store.GetByKey(ctx, pub)
	if err != nil {
		return nil, err
	}
	if err := f.Ready(ctx); err != nil {
		return nil, err
	}
	if !f.Exists() {
		return nil, ErrMissingPage
	}
	return f.GetBatch(0, f.Len())
}
