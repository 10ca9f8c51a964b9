// Package common holds the types shared by every layer of the index: keys,
// key/position pairs, piece and page extents.
package common

import (
	"fmt"
)

// Key is the runtime representation used by every layer above the dataset
// loading boundary. uint32 datasets are widened to Key on load; the
// original dtype is preserved only in the manifest (§6.2) for sizing piece
// records on storage.
type Key = uint64

// Dtype names the on-disk key width recorded in the manifest.
type Dtype uint8

const (
	DtypeUint32 Dtype = iota
	DtypeUint64
)

func (d Dtype) String() string {
	switch d {
	case DtypeUint32:
		return "uint32"
	case DtypeUint64:
		return "uint64"
	default:
		return "unknown"
	}
}

// Width reports the on-disk byte width of a key of this dtype.
func (d Dtype) Width() int {
	if d == DtypeUint32 {
		return 4
	}
	return 8
}

func ParseDtype(s string) (Dtype, error) {
	switch s {
	case "uint32":
		return DtypeUint32, nil
	case "uint64":
		return DtypeUint64, nil
	default:
		return 0, fmt.Errorf("common: unknown dtype %q", s)
	}
}

// KeyPosition is one (key, position) anchor: position is either a byte
// offset into the dataset (leaf layer) or the byte offset of a page in the
// layer below, page index times page size (non-leaf layer).
type KeyPosition struct {
	Key      Key
	Position int64
}

// PageExtent is a byte range on some blob: a layer_j blob, or the data blob.
type PageExtent struct {
	Offset uint64
	Length uint32
}

// IsSentinel reports whether e is the out-of-range sentinel extent (§4.5).
func (e PageExtent) IsSentinel() bool {
	return e == PageExtent{}
}

// SentinelExtent is returned by Lookup for keys outside [min_key, max_key].
var SentinelExtent = PageExtent{}

// Piece is one piecewise-model segment: every key in [LoKey, HiKey] predicts
// to within ±MaxErr of Child's start, in bytes of the dataset (leaf) or of
// the layer below (non-leaf).
type Piece struct {
	LoKey Key
	HiKey Key
	Child PageExtent
	// Slope/Intercept are populated for linear (band) pieces only; a step
	// piece leaves them zero and predicts a constant offset (Child.Offset).
	Slope     float64
	Intercept float64
	IsLinear  bool
}

// Predict returns the model's predicted byte offset for key within this
// piece. Callers still must clamp against ±MaxErr before reading.
func (p Piece) Predict(key Key) int64 {
	if !p.IsLinear {
		return int64(p.Child.Offset)
	}
	return int64(p.Slope*float64(key) + p.Intercept)
}

// Record is one (key, value) pair as scanned off the dataset's key column.
// Only Key and byte-length matter to the core; Value is carried for the
// collaborator dataset loader (§1, out of core scope) and for tests.
type Record struct {
	Key   Key
	Value []byte
}

func (r Record) String() string {
	return fmt.Sprintf("Record{Key: %d, ValLen: %d}", r.Key, len(r.Value))
}
