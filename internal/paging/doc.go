// Package paging partitions a byte stream into fixed-size pages and appends
// each page's bytes to its own append-only log.
//
// # Overview
//
// A Session reads bounded chunks from a Source, works out which page the
// chunk belongs to, derives that page's keypair from the master key
// (pkg/keys), obtains the page's log from a Store, appends the chunk, and
// repeats until the source reports end of stream. One read, one readiness
// wait and one append are in flight at a time, so bytes reach the logs in
// stream order and a log never sees concurrent appends from one session.
//
// Page assignment is decided once per chunk from the offset before the
// chunk; a chunk is never split across logs. Reads are clamped to the end
// of the current page, so a page log never holds more than PageSize bytes.
// Setting Config.AllowPageOverflow restores unclamped reads, where a chunk
// that crosses a boundary lands entirely in the page it started in; with
// that option a chunk can only stay within its page when BufferSize divides
// PageSize and the source never returns short reads.
//
// Usage
//
//	cfg := paging.DefaultConfig()
//	cfg.Source = source.NewFile(f)
//	cfg.Store = paging.FeedStore(feeds)
//	sess, err := paging.Start(ctx, cfg, func(err error, logs []paging.PageLog) {
//	    // exactly once, success or failure
//	})
//	if err != nil { /* invalid config, nothing was read */ }
//	snap := sess.Snapshot() // live, advisory progress
//
// A reader that only knows the master key recomputes page addresses with
// keys.Derive(namespace, master, pageSize, page) for page = 1..n.
//
// Errors from the source, the stat call, store readiness, log readiness or
// append end the session; they are delivered unchanged to the completion
// callback and nothing already appended is rolled back. Resume by starting
// a new session with Config.Offset set to the last snapshot offset.
package paging
