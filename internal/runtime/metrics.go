package runtime

import (
	"sync/atomic"
	"time"
)

// StorageStats counts storage activity. It implements
// pebblestore.MetricsHook and is installed when Options.Metrics is nil.
type StorageStats struct {
	commits      atomic.Uint64
	committedOps atomic.Uint64
	writtenBytes atomic.Uint64
	reads        atomic.Uint64
	readBytes    atomic.Uint64
}

// StorageSnapshot is a copy of the counters.
type StorageSnapshot struct {
	Commits      uint64
	CommittedOps uint64
	WrittenBytes uint64
	Reads        uint64
	ReadBytes    uint64
}

func (s *StorageStats) ObserveWrite(time.Duration, int) {}

func (s *StorageStats) ObserveRead(_ time.Duration, bytes int) {
	s.reads.Add(1)
	s.readBytes.Add(uint64(bytes))
}

func (s *StorageStats) ObserveBatchCommit(_ time.Duration, ops, bytes int) {
	s.commits.Add(1)
	s.committedOps.Add(uint64(ops))
	s.writtenBytes.Add(uint64(bytes))
}

// Snapshot returns the current counters.
func (s *StorageStats) Snapshot() StorageSnapshot {
	return StorageSnapshot{
		Commits:      s.commits.Load(),
		CommittedOps: s.committedOps.Load(),
		WrittenBytes: s.writtenBytes.Load(),
		Reads:        s.reads.Load(),
		ReadBytes:    s.readBytes.Load(),
	}
}
