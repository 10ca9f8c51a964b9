// Package btreeindex is the B-tree baseline for enb/enb_layers (§6.1, §9),
// built by the CLI's --do-build (the CLI's --do-benchmark does not run
// against it): a bulk-loaded, read-only
// google/btree index over the same (key, extent) pairs a learned layer
// would fit, instead of a piecewise model. It continues the teacher's
// MemTable's dependency on google/btree, repurposed from a mutable
// append-as-you-go store into a static index built once from a sorted
// KeyBuffer.
package btreeindex

import (
	"context"
	"errors"
	"fmt"

	"airindex/pkg/common"
	"airindex/pkg/keybuffer"
	"airindex/pkg/storage"

	"github.com/google/btree"
)

// ErrNotFound mirrors index.ErrNotFound so callers comparing the two
// backends can share the same not-found handling.
var ErrNotFound = errors.New("btreeindex: key not found")

// DefaultDegree matches the teacher's NewMemTable default call sites.
const DefaultDegree = 32

// entry is one leaf of the tree: a key plus the bounded dataset extent
// holding its single record, precomputed at Build time from consecutive
// KeyBuffer entries so Get never needs a second tree descent to find an
// extent's upper bound.
type entry struct {
	key    common.Key
	offset uint64
	length uint32
}

func (e *entry) Less(than btree.Item) bool {
	return e.key < than.(*entry).key
}

// Index is the bulk-loaded tree: the baseline's analogue of a materialized
// layer.Layer.
type Index struct {
	tree *btree.BTree
}

// Build inserts every real KeyBuffer entry into a fresh tree in ascending
// order, the same ReplaceOrInsert call the teacher's MemTable.Put uses, one
// call per key instead of one per write.
func Build(kb *keybuffer.KeyBuffer, degree int) *Index {
	if degree <= 0 {
		degree = DefaultDegree
	}
	tree := btree.New(degree)
	n := kb.Len()
	for i := 0; i < n; i++ {
		kp := kb.At(i)
		next := kb.PositionAt(i + 1)
		tree.ReplaceOrInsert(&entry{
			key:    kp.Key,
			offset: uint64(kp.Position),
			length: uint32(next - kp.Position),
		})
	}
	return &Index{tree: tree}
}

// Len reports how many keys the tree holds.
func (idx *Index) Len() int { return idx.tree.Len() }

// Reader serves point lookups against a built Index, the baseline's
// analogue of index.Reader: same Get(ctx, key) contract, one tree descent
// plus one bounded dataset read per call, no cached root and no stacked
// layers to walk.
type Reader struct {
	index     *Index
	dataStore storage.Store
	dtype     common.Dtype
}

// Open pairs a built Index with the dataStore it indexes into. dataStore's
// lifecycle remains the caller's, same as pkg/index.Open.
func Open(index *Index, dataStore storage.Store, dtype common.Dtype) *Reader {
	return &Reader{index: index, dataStore: dataStore, dtype: dtype}
}

// Get resolves key via a single tree lookup, then reads the exact bounded
// extent recorded for it.
func (r *Reader) Get(ctx context.Context, key common.Key) ([]byte, error) {
	item := r.index.tree.Get(&entry{key: key})
	if item == nil {
		return nil, ErrNotFound
	}
	e := item.(*entry)
	data, err := r.dataStore.ReadAt(ctx, e.offset, e.length)
	if err != nil {
		return nil, fmt.Errorf("btreeindex: read extent for key %d: %w", key, err)
	}
	return decodeRecord(data, r.dtype)
}

// decodeRecord parses the single record a Get extent always holds: key,
// then a 4-byte little-endian value length, then the value (same layout
// index.scanRecords reads, here specialized to exactly one record since
// Build already bounded the extent tightly).
func decodeRecord(data []byte, dtype common.Dtype) ([]byte, error) {
	width := dtype.Width()
	if len(data) < width+4 {
		return nil, fmt.Errorf("btreeindex: truncated record (%d bytes)", len(data))
	}
	valLen := int(leUint32(data[width : width+4]))
	start := width + 4
	if start+valLen > len(data) {
		return nil, fmt.Errorf("btreeindex: value length %d exceeds extent", valLen)
	}
	val := make([]byte, valLen)
	copy(val, data[start:start+valLen])
	return val, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
