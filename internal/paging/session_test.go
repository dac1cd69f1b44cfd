package paging

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rzbill/multipart/internal/feed"
	pebblestore "github.com/rzbill/multipart/internal/storage/pebble"
	"github.com/rzbill/multipart/pkg/keys"
)

func testConfig(src Source, store Store, bufferSize int, pageSize uint64) Config {
	cfg := DefaultConfig()
	cfg.Source = src
	cfg.Store = store
	cfg.BufferSize = bufferSize
	cfg.PageSize = pageSize
	cfg.MasterKey = testMasterKey()
	cfg.Namespace = "test"
	return cfg
}

func runSession(t *testing.T, cfg Config) (*Session, Result, error) {
	t.Helper()
	calls := 0
	completed := make(chan struct{})
	s, err := Start(context.Background(), cfg, func(error, []PageLog) {
		calls++
		close(completed)
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res, runErr := s.Wait()
	select {
	case <-completed:
	case <-time.After(5 * time.Second):
		t.Fatalf("completion callback not invoked")
	}
	if calls != 1 {
		t.Fatalf("completion calls: want 1, got %d", calls)
	}
	return s, res, runErr
}

func assertPages(t *testing.T, store *memStore, master []byte, ns string, pageSize uint64, data []byte) {
	t.Helper()
	mk, _ := keys.MasterKeyFromBytes(master)
	pages := (uint64(len(data)) + pageSize - 1) / pageSize
	for p := uint64(1); p <= pages; p++ {
		kp := keys.Derive(ns, mk, pageSize, p)
		l := store.log(kp.PublicKey)
		if l == nil {
			t.Fatalf("page %d: no log at derived address %s", p, kp.PublicKey.Short())
		}
		lo := (p - 1) * pageSize
		hi := lo + pageSize
		if hi > uint64(len(data)) {
			hi = uint64(len(data))
		}
		if got := l.bytes(); !bytes.Equal(got, data[lo:hi]) {
			t.Fatalf("page %d: want bytes [%d,%d), got %d bytes", p, lo, hi, len(got))
		}
	}
	if len(store.logs) != int(pages) {
		t.Fatalf("logs created: want %d, got %d", pages, len(store.logs))
	}
}

func TestBoundaryScenario(t *testing.T) {
	data := testData(1024)
	store := newMemStore()
	src := statSource{memSource: &memSource{data: data}}
	cfg := testConfig(src, store, 32, 256)

	var entered, settled []uint64
	cfg.OnPage = func(p uint64, _ Log) { entered = append(entered, p) }
	cfg.OnSettle = func(p uint64, _ Log) { settled = append(settled, p) }

	s, res, err := runSession(t, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Offset != 1024 || res.Blocks != 32 {
		t.Fatalf("offset=%d blocks=%d", res.Offset, res.Blocks)
	}
	if len(res.Logs) != 4 {
		t.Fatalf("logs: want 4, got %d", len(res.Logs))
	}
	mk, _ := keys.MasterKeyFromBytes(cfg.MasterKey)
	for i, pl := range res.Logs {
		want := keys.Derive("test", mk, 256, uint64(i+1))
		if pl.Page != uint64(i+1) || pl.Key != want.PublicKey {
			t.Fatalf("log %d: page=%d key=%s want %s", i, pl.Page, pl.Key.Short(), want.PublicKey.Short())
		}
		if n := len(pl.Log.(*memLog).blocks); n != 8 {
			t.Fatalf("page %d blocks: want 8, got %d", pl.Page, n)
		}
	}
	assertPages(t, store, cfg.MasterKey, "test", 256, data)

	if got := []uint64{1, 2, 3, 4}; !equalU64(entered, got) || !equalU64(settled, got) {
		t.Fatalf("entered=%v settled=%v", entered, settled)
	}
	snap := s.Snapshot()
	if snap.State != StateDone || snap.Offset != 1024 || snap.Page != 5 || snap.Pages != 4 || snap.Blocks != 32 {
		t.Fatalf("snapshot: %+v", snap)
	}
	if snap.Stats == nil || snap.Stats.Size != 1024 {
		t.Fatalf("stats: %+v", snap.Stats)
	}
	// known size: no read past the end
	if n := src.readCount(); n != 32 {
		t.Fatalf("reads: want 32, got %d", n)
	}
	if store.readyCalls != 1 {
		t.Fatalf("store ready calls: %d", store.readyCalls)
	}
}

func TestUnknownSizeTerminatesOnEmptyRead(t *testing.T) {
	data := testData(300)
	store := newMemStore()
	src := &memSource{data: data}
	cfg := testConfig(src, store, 64, 128)

	s, res, err := runSession(t, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Offset != 300 {
		t.Fatalf("offset: %d", res.Offset)
	}
	if res.Stats != nil {
		t.Fatalf("stats should be unknown, got %+v", res.Stats)
	}
	// 64,64 | 64,64 | 44 then the empty read
	if n := src.readCount(); n != 6 {
		t.Fatalf("reads: want 6, got %d", n)
	}
	if s.Pages() != 3 {
		t.Fatalf("pages: want 3, got %d", s.Pages())
	}
	assertPages(t, store, cfg.MasterKey, "test", 128, data)
}

func TestAppendFailureOnSecondPage(t *testing.T) {
	data := testData(1024)
	store := newMemStore()
	mk, _ := keys.MasterKeyFromBytes(testMasterKey())
	page2 := keys.Derive("test", mk, 256, 2)
	store.appendErrs[page2.PublicKey] = errBoom

	cfg := testConfig(statSource{memSource: &memSource{data: data}}, store, 32, 256)
	var gotLogs []PageLog
	done := make(chan error, 1)
	s, err := Start(context.Background(), cfg, func(err error, logs []PageLog) {
		gotLogs = logs
		done <- err
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	runErr := <-done
	if !errors.Is(runErr, errBoom) {
		t.Fatalf("want store error, got %v", runErr)
	}
	if len(gotLogs) != 2 {
		t.Fatalf("logs: want 2, got %d", len(gotLogs))
	}
	<-s.Done()
	snap := s.Snapshot()
	if snap.State != StateFailed || snap.Offset != 256 || snap.Page != 2 {
		t.Fatalf("snapshot: %+v", snap)
	}
	page1 := keys.Derive("test", mk, 256, 1)
	if got := store.log(page1.PublicKey).bytes(); !bytes.Equal(got, data[:256]) {
		t.Fatalf("page 1 not intact: %d bytes", len(got))
	}
	if _, waitErr := s.Wait(); !errors.Is(waitErr, errBoom) {
		t.Fatalf("wait: %v", waitErr)
	}
}

func TestInvalidConfig(t *testing.T) {
	base := func() Config {
		return testConfig(&memSource{}, newMemStore(), 32, 256)
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }},
		{"negative buffer", func(c *Config) { c.BufferSize = -1 }},
		{"zero page", func(c *Config) { c.PageSize = 0 }},
		{"short master key", func(c *Config) { c.MasterKey = []byte{1, 2, 3} }},
		{"empty namespace", func(c *Config) { c.Namespace = "" }},
		{"no source", func(c *Config) { c.Source = nil }},
		{"no store", func(c *Config) { c.Store = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			s, err := Start(context.Background(), cfg, func(error, []PageLog) {
				t.Errorf("completion must not run for an invalid config")
			})
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("want ErrInvalidConfig, got %v", err)
			}
			if s != nil {
				t.Fatalf("session returned with error")
			}
		})
	}
}

func TestNoBleedWithUnalignedBuffer(t *testing.T) {
	for _, tc := range []struct {
		size, buffer int
		page         uint64
		maxChunk     int
	}{
		{size: 1000, buffer: 32, page: 100},
		{size: 999, buffer: 7, page: 64},
		{size: 257, buffer: 256, page: 256},
		{size: 500, buffer: 1000, page: 100},
		{size: 640, buffer: 64, page: 64, maxChunk: 13},
		{size: 1, buffer: 1, page: 1},
	} {
		data := testData(tc.size)
		store := newMemStore()
		cfg := testConfig(statSource{memSource: &memSource{data: data, maxChunk: tc.maxChunk}}, store, tc.buffer, tc.page)
		_, res, err := runSession(t, cfg)
		if err != nil {
			t.Fatalf("size=%d buffer=%d page=%d: %v", tc.size, tc.buffer, tc.page, err)
		}
		if res.Offset != uint64(tc.size) {
			t.Fatalf("size=%d: offset %d", tc.size, res.Offset)
		}
		assertPages(t, store, cfg.MasterKey, "test", tc.page, data)
	}
}

func TestAllowPageOverflowKeepsChunksWhole(t *testing.T) {
	data := testData(192)
	store := newMemStore()
	cfg := testConfig(statSource{memSource: &memSource{data: data}}, store, 32, 100)
	cfg.AllowPageOverflow = true

	_, res, err := runSession(t, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Logs) != 2 {
		t.Fatalf("logs: want 2, got %d", len(res.Logs))
	}
	// chunk [96,128) starts on page 1 and stays there
	if got := res.Logs[0].Log.(*memLog).bytes(); !bytes.Equal(got, data[:128]) {
		t.Fatalf("page 1: %d bytes", len(got))
	}
	if got := res.Logs[1].Log.(*memLog).bytes(); !bytes.Equal(got, data[128:]) {
		t.Fatalf("page 2: %d bytes", len(got))
	}
	for _, pl := range res.Logs {
		for _, b := range pl.Log.(*memLog).blocks {
			if len(b) != 32 {
				t.Fatalf("chunk split: %d bytes", len(b))
			}
		}
	}
}

func TestResumeFromOffset(t *testing.T) {
	data := testData(1024)
	store := newMemStore()
	cfg := testConfig(statSource{memSource: &memSource{data: data}}, store, 64, 256)
	cfg.Offset = 512

	s, res, err := runSession(t, cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Logs) != 2 || res.Logs[0].Page != 3 || res.Logs[1].Page != 4 {
		t.Fatalf("logs: %+v", res.Logs)
	}
	if res.Offset != 1024 || res.Blocks != 8 {
		t.Fatalf("offset=%d blocks=%d", res.Offset, res.Blocks)
	}
	mk, _ := keys.MasterKeyFromBytes(cfg.MasterKey)
	if got := store.log(keys.Derive("test", mk, 256, 3).PublicKey).bytes(); !bytes.Equal(got, data[512:768]) {
		t.Fatalf("page 3: %d bytes", len(got))
	}
	if s.Pages() != 4 {
		t.Fatalf("pages: %d", s.Pages())
	}
}

func TestEmptySourceCreatesNoLogs(t *testing.T) {
	store := newMemStore()
	src := statSource{memSource: &memSource{}}
	_, res, err := runSession(t, testConfig(src, store, 32, 256))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Logs) != 0 || store.gets != 0 || src.readCount() != 0 {
		t.Fatalf("logs=%d gets=%d reads=%d", len(res.Logs), store.gets, src.readCount())
	}
}

func TestPresuppliedStatsSkipStat(t *testing.T) {
	data := testData(100)
	src := statSource{memSource: &memSource{data: data}, statErr: errBoom}
	cfg := testConfig(src, newMemStore(), 32, 64)
	cfg.Stats = &Stats{Size: 100}
	if _, _, err := runSession(t, cfg); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestCapabilityErrorsSurfaceUnchanged(t *testing.T) {
	t.Run("stat", func(t *testing.T) {
		src := statSource{memSource: &memSource{data: testData(10)}, statErr: errBoom}
		_, _, err := runSession(t, testConfig(src, newMemStore(), 4, 8))
		if !errors.Is(err, errBoom) {
			t.Fatalf("want stat error, got %v", err)
		}
		if src.readCount() != 0 {
			t.Fatalf("read after failed stat")
		}
	})
	t.Run("store ready", func(t *testing.T) {
		store := newMemStore()
		store.readyErr = errBoom
		src := &memSource{data: testData(10)}
		s, _, err := runSession(t, testConfig(src, store, 4, 8))
		if !errors.Is(err, errBoom) || s.State() != StateFailed {
			t.Fatalf("err=%v state=%s", err, s.State())
		}
		if src.readCount() != 0 {
			t.Fatalf("read before store ready")
		}
	})
	t.Run("read", func(t *testing.T) {
		src := SourceFunc(func(ctx context.Context, offset uint64, length int) ([]byte, error) {
			if offset >= 8 {
				return nil, errBoom
			}
			return make([]byte, length), nil
		})
		s, res, err := runSession(t, testConfig(src, newMemStore(), 4, 8))
		if !errors.Is(err, errBoom) || res.Offset != 8 || s.Offset() != 8 {
			t.Fatalf("err=%v offset=%d", err, res.Offset)
		}
	})
	t.Run("over-long read", func(t *testing.T) {
		src := SourceFunc(func(ctx context.Context, offset uint64, length int) ([]byte, error) {
			return make([]byte, length+1), nil
		})
		_, _, err := runSession(t, testConfig(src, newMemStore(), 4, 8))
		if err == nil {
			t.Fatalf("want error for over-long read")
		}
	})
}

func TestGeneratedMasterKey(t *testing.T) {
	newSession := func() *Session {
		cfg := testConfig(&memSource{}, newMemStore(), 4, 8)
		cfg.MasterKey = nil
		s, _, err := runSession(t, cfg)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return s
	}
	a, b := newSession(), newSession()
	if a.MasterKey() == (keys.MasterKey{}) || a.MasterKey() == b.MasterKey() {
		t.Fatalf("master keys not random: %s %s", a.MasterKey(), b.MasterKey())
	}
	if a.ID() == b.ID() {
		t.Fatalf("session ids collide")
	}
}

func TestPageCacheIsIdempotent(t *testing.T) {
	store := newMemStore()
	cfg := testConfig(&memSource{}, store, 4, 8)
	mk, _ := keys.MasterKeyFromBytes(cfg.MasterKey)
	c := newPageCache(cfg, mk, 1)
	ctx := context.Background()

	a, created, err := c.getOrCreate(ctx, 2)
	if err != nil || !created {
		t.Fatalf("first getOrCreate: created=%v err=%v", created, err)
	}
	b, created, err := c.getOrCreate(ctx, 2)
	if err != nil || created {
		t.Fatalf("second getOrCreate: created=%v err=%v", created, err)
	}
	if a != b || store.gets != 1 {
		t.Fatalf("handle recreated: same=%v gets=%d", a == b, store.gets)
	}
	if _, _, err := c.getOrCreate(ctx, 1); err != nil {
		t.Fatalf("page 1: %v", err)
	}
	logs := c.created()
	if len(logs) != 2 || logs[0].Page != 1 || logs[1].Page != 2 || c.count() != 2 {
		t.Fatalf("created: %+v", logs)
	}
}

func TestPageCacheRejectsPageBeforeFirst(t *testing.T) {
	store := newMemStore()
	cfg := testConfig(&memSource{}, store, 4, 8)
	mk, _ := keys.MasterKeyFromBytes(cfg.MasterKey)
	c := newPageCache(cfg, mk, 3)

	if _, _, err := c.getOrCreate(context.Background(), 2); err == nil {
		t.Fatalf("expected error for page before the first page")
	}
	if store.gets != 0 || c.count() != 0 {
		t.Fatalf("no log should be created: gets=%d count=%d", store.gets, c.count())
	}
}

func TestRequestLength(t *testing.T) {
	tests := []struct {
		name     string
		buffer   int
		page     uint64
		overflow bool
		offset   uint64
		stats    *Stats
		want     int
	}{
		{"buffer", 32, 256, false, 0, nil, 32},
		{"page caps buffer", 1000, 256, false, 0, nil, 256},
		{"page end", 32, 100, false, 96, nil, 4},
		{"page end ignored", 32, 100, true, 96, nil, 32},
		{"size end", 32, 256, false, 90, &Stats{Size: 100}, 10},
		{"exact", 32, 256, false, 64, &Stats{Size: 96}, 32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{BufferSize: tt.buffer, PageSize: tt.page, AllowPageOverflow: tt.overflow}
			if got := cfg.requestLength(tt.offset, tt.stats); got != tt.want {
				t.Fatalf("want %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRunWithFeedStore(t *testing.T) {
	db, err := pebblestore.Open(pebblestore.Options{InMemory: true})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	feeds := feed.Open(db, feed.Options{Compression: feed.CompressionZstd})

	data := testData(1000)
	cfg := testConfig(statSource{memSource: &memSource{data: data}}, FeedStore(feeds), 50, 300)
	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Logs) != 4 {
		t.Fatalf("logs: want 4, got %d", len(res.Logs))
	}
	var out []byte
	for _, pl := range res.Logs {
		f, ok := FeedOf(pl.Log)
		if !ok {
			t.Fatalf("page %d: not a feed", pl.Page)
		}
		blocks, err := f.GetBatch(0, f.Len())
		if err != nil {
			t.Fatalf("page %d: %v", pl.Page, err)
		}
		out = append(out, bytes.Join(blocks, nil)...)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("reassembled %d bytes, want %d", len(out), len(data))
	}
}

func equalU64(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
