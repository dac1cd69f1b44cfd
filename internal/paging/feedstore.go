package paging

import (
	"context"

	"github.com/rzbill/multipart/internal/feed"
	"github.com/rzbill/multipart/pkg/keys"
)

// FeedStore adapts a feed.Store to Store.
func FeedStore(s *feed.Store) Store { return feedStore{s: s} }

type feedStore struct{ s *feed.Store }

func (f feedStore) Ready(ctx context.Context) error { return f.s.Ready(ctx) }

func (f feedStore) Get(ctx context.Context, kp keys.KeyPair) (Log, error) {
	fd, err := f.s.Get(ctx, kp)
	if err != nil {
		return nil, err
	}
	return feedLog{Feed: fd}, nil
}

type feedLog struct{ *feed.Feed }

func (l feedLog) Append(ctx context.Context, block []byte) error {
	_, err := l.Feed.Append(ctx, block)
	return err
}

// FeedOf returns the feed behind a Log obtained from FeedStore.
func FeedOf(l Log) (*feed.Feed, bool) {
	fl, ok := l.(feedLog)
	if !ok {
		return nil, false
	}
	return fl.Feed, true
}
