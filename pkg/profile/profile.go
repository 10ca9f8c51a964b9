// Package profile implements the storage cost model the planner optimizes
// against (§4.1): cost(n, b) = n*L + b/W. Pure and total, no I/O.
package profile

import "time"

// StorageProfile is a black box to every caller in this module: the planner
// never inspects its internals, only calls Cost.
type StorageProfile interface {
	// Cost estimates the wall-clock time of nRequests independent reads
	// totalling nBytes.
	Cost(nRequests int, nBytes int64) time.Duration

	// SequentialCost sums Cost(1, size) over each size, one request per
	// entry. Used by the planner to price a top-down traversal.
	SequentialCost(sizes []int64) time.Duration
}

// Latency is the per-request term alone: cost is independent of size.
type Latency time.Duration

func (l Latency) Cost(nRequests int, _ int64) time.Duration {
	return time.Duration(nRequests) * time.Duration(l)
}

func (l Latency) SequentialCost(sizes []int64) time.Duration {
	return time.Duration(len(sizes)) * time.Duration(l)
}

// Bandwidth is the per-byte term alone, expressed in MB/s the way
// `--affine-bandwidth-mbps` names it.
type Bandwidth struct {
	MBps float64
}

func (b Bandwidth) costOne(nBytes int64) time.Duration {
	// ns = bytes * 1e9 / (MBps * 1e6) = bytes * 1e3 / MBps
	return time.Duration(float64(nBytes) * 1e3 / b.MBps)
}

func (b Bandwidth) Cost(_ int, nBytes int64) time.Duration {
	return b.costOne(nBytes)
}

func (b Bandwidth) SequentialCost(sizes []int64) time.Duration {
	var total time.Duration
	for _, s := range sizes {
		total += b.costOne(s)
	}
	return total
}

// AffineProfile is the one profile the core ships: cost = n*L + bytes/W.
// Composing Latency and Bandwidth keeps each term independently testable,
// the way the teacher's original Rust profile split Latency/Bandwidth/Affine.
type AffineProfile struct {
	latency   Latency
	bandwidth Bandwidth
}

// NewAffineProfile builds a profile from a per-request latency and a
// bandwidth in megabytes per second.
func NewAffineProfile(latency time.Duration, bandwidthMBps float64) AffineProfile {
	return AffineProfile{
		latency:   Latency(latency),
		bandwidth: Bandwidth{MBps: bandwidthMBps},
	}
}

func (a AffineProfile) Cost(nRequests int, nBytes int64) time.Duration {
	return a.latency.Cost(nRequests, nBytes) + a.bandwidth.Cost(nRequests, nBytes)
}

// SequentialCost prices len(sizes) independent single-byte-range requests,
// one request of size sizes[i] each — used by the planner to cost a chain
// of layer reads end to end.
func (a AffineProfile) SequentialCost(sizes []int64) time.Duration {
	var total time.Duration
	for _, s := range sizes {
		total += a.Cost(1, s)
	}
	return total
}

// LatencyNS returns the profile's configured per-request latency.
func (a AffineProfile) LatencyNS() time.Duration { return time.Duration(a.latency) }

// BandwidthMBps returns the profile's configured bandwidth.
func (a AffineProfile) BandwidthMBps() float64 { return a.bandwidth.MBps }
