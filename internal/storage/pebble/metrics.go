package pebblestore

import (
	"sync/atomic"
	"time"
)

// MetricsHook observes storage operations.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int)
}

// NoopMetrics discards observations.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int)            {}
func (NoopMetrics) ObserveRead(time.Duration, int)             {}
func (NoopMetrics) ObserveBatchCommit(time.Duration, int, int) {}

// Stats is a point-in-time copy of Counters.
type Stats struct {
	Writes       uint64 `json:"writes"`
	BytesWritten uint64 `json:"bytesWritten"`
	Reads        uint64 `json:"reads"`
	BytesRead    uint64 `json:"bytesRead"`
	Commits      uint64 `json:"commits"`
	CommitMicros uint64 `json:"commitMicros"`
}

// Counters is a MetricsHook that keeps running totals.
type Counters struct {
	writes, bytesWritten  atomic.Uint64
	reads, bytesRead      atomic.Uint64
	commits, commitMicros atomic.Uint64
}

func (c *Counters) ObserveWrite(_ time.Duration, bytes int) {
	c.writes.Add(1)
	c.bytesWritten.Add(uint64(bytes))
}

func (c *Counters) ObserveRead(_ time.Duration, bytes int) {
	c.reads.Add(1)
	c.bytesRead.Add(uint64(bytes))
}

func (c *Counters) ObserveBatchCommit(elapsed time.Duration, _ int, _ int) {
	c.commits.Add(1)
	c.commitMicros.Add(uint64(elapsed.Microseconds()))
}

// Snapshot reads the current totals.
func (c *Counters) Snapshot() Stats {
	return Stats{
		Writes:       c.writes.Load(),
		BytesWritten: c.bytesWritten.Load(),
		Reads:        c.reads.Load(),
		BytesRead:    c.bytesRead.Load(),
		Commits:      c.commits.Load(),
		CommitMicros: c.commitMicros.Load(),
	}
}
