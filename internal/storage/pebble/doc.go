// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// batches, prefix scans, and minimal metrics hooks. Page logs and manifests
// are both stored through it.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic updates with batches
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
//
//	// Point ops and scans
//	_ = db.Set([]byte("k2"), []byte("v2"))
//	v, _ := db.Get([]byte("k2"))
//	_ = db.ScanPrefix([]byte("k"), func(k, v []byte) bool { return true })
//
// Tests and short-lived tools can set Options.InMemory to avoid touching disk.
package pebblestore
