// Package stats holds the atomic counters a CLI run accumulates across a
// build or a benchmark (SPEC_FULL §2, ambient), generalized from the
// teacher's WorkloadStats read/write/hit counters into the build- and
// query-side telemetry this index cares about: layers materialized, pages
// fetched, and total per-query latency (reported as a mean).
package stats

import (
	"sync/atomic"
)

// BuildStats accumulates counters over one planner + writer run.
type BuildStats struct {
	LayersConsidered uint64
	LayersBuilt      uint64
	CandidatesFitted uint64
	BytesWritten     uint64
}

func NewBuildStats() *BuildStats {
	return &BuildStats{}
}

func (s *BuildStats) RecordLayerConsidered() {
	atomic.AddUint64(&s.LayersConsidered, 1)
}

func (s *BuildStats) RecordLayerBuilt() {
	atomic.AddUint64(&s.LayersBuilt, 1)
}

func (s *BuildStats) RecordCandidateFitted() {
	atomic.AddUint64(&s.CandidatesFitted, 1)
}

func (s *BuildStats) RecordBytesWritten(n int) {
	atomic.AddUint64(&s.BytesWritten, uint64(n))
}

// QueryStats accumulates counters over a run of Get calls, the query-side
// analogue of WorkloadStats.
type QueryStats struct {
	LookupCount    uint64
	NotFoundCount  uint64
	PagesFetched   uint64
	NanosTotal     uint64
}

func NewQueryStats() *QueryStats {
	return &QueryStats{}
}

func (s *QueryStats) RecordLookup(pagesFetched int, elapsedNanos int64) {
	atomic.AddUint64(&s.LookupCount, 1)
	atomic.AddUint64(&s.PagesFetched, uint64(pagesFetched))
	atomic.AddUint64(&s.NanosTotal, uint64(elapsedNanos))
}

func (s *QueryStats) RecordNotFound() {
	atomic.AddUint64(&s.NotFoundCount, 1)
}

// MeanLatencyNanos reports the average per-lookup latency recorded so far,
// the query-side analogue of WorkloadStats.GetReadWriteRatio.
func (s *QueryStats) MeanLatencyNanos() float64 {
	lookups := atomic.LoadUint64(&s.LookupCount)
	if lookups == 0 {
		return 0.0
	}
	total := atomic.LoadUint64(&s.NanosTotal)
	return float64(total) / float64(lookups)
}

// MeanPagesFetched reports the average per-lookup page fetch count, as
// passed to RecordLookup.
func (s *QueryStats) MeanPagesFetched() float64 {
	lookups := atomic.LoadUint64(&s.LookupCount)
	if lookups == 0 {
		return 0.0
	}
	fetched := atomic.LoadUint64(&s.PagesFetched)
	return float64(fetched) / float64(lookups)
}
