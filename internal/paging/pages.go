package paging

import (
	"context"
	"fmt"

	"github.com/rzbill/multipart/pkg/keys"
)

// pageCache holds the log handle of every page entered by a session.
// Handles are indexed by page - first and never evicted. Only the session
// goroutine touches it.
type pageCache struct {
	namespace string
	master    keys.MasterKey
	pageSize  uint64
	store     Store

	first uint64
	logs  []*PageLog
	n     uint64
}

func newPageCache(cfg Config, master keys.MasterKey, firstPage uint64) *pageCache {
	return &pageCache{
		namespace: cfg.Namespace,
		master:    master,
		pageSize:  cfg.PageSize,
		store:     cfg.Store,
		first:     firstPage,
	}
}

// getOrCreate returns the ready log for page. created reports whether this
// call created the handle.
func (c *pageCache) getOrCreate(ctx context.Context, page uint64) (pl *PageLog, created bool, err error) {
	if page < c.first {
		return nil, false, fmt.Errorf("paging: page %d precedes first page %d", page, c.first)
	}
	idx := page - c.first
	if idx < uint64(len(c.logs)) && c.logs[idx] != nil {
		return c.logs[idx], false, nil
	}
	for uint64(len(c.logs)) <= idx {
		c.logs = append(c.logs, nil)
	}
	kp := keys.Derive(c.namespace, c.master, c.pageSize, page)
	l, err := c.store.Get(ctx, kp)
	if err != nil {
		return nil, false, err
	}
	pl = &PageLog{Page: page, Key: kp.PublicKey, Log: l}
	c.logs[idx] = pl
	c.n++
	if err := l.Ready(ctx); err != nil {
		return nil, true, err
	}
	return pl, true, nil
}

// created returns the handles in page order.
func (c *pageCache) created() []PageLog {
	out := make([]PageLog, 0, len(c.logs))
	for _, pl := range c.logs {
		if pl != nil {
			out = append(out, *pl)
		}
	}
	return out
}

func (c *pageCache) count() uint64 { return c.n }
