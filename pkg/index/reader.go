package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"airindex/pkg/common"
	"airindex/pkg/layer"
	"airindex/pkg/storage"
)

// ErrNoIndex is returned by Get when the planner decided no layer was
// worth building (§4.4 "no_index_cost" won): the caller must fall back to
// scanning the dataset's own key buffer directly.
var ErrNoIndex = errors.New("index: dataset has no stacked layers, fall back to a direct dataset scan")

// ErrNotFound is returned by Get when key is outside the dataset's key
// range or otherwise absent (§4.5 "NotFound" sentinel, not a panic).
var ErrNotFound = errors.New("index: key not found")

// Reader serves point lookups against a persisted index: the root page is
// fetched once at Open and cached, every Get after that costs one
// layer-page read per layer below the root (more when a band piece's
// window straddles page boundaries, see candidatePageIndices) plus one
// final dataset read (§4.5).
type Reader struct {
	manifest    *Manifest
	layersStore storage.Store
	dataStore   storage.Store

	// rootPages/rootFirstKeys hold the whole top layer in memory: the
	// planner guarantees it is the smallest layer, so this is the one
	// layer a reader never re-fetches per query (§4.4).
	rootPages     []layer.Page
	rootFirstKeys []common.Key
	rootPageSize  int
}

// Open loads dir's manifest and caches the whole root layer. dataStore
// serves the dataset this index points into; callers own its lifecycle.
func Open(ctx context.Context, dir string, dataStore storage.Store) (*Reader, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("index: read manifest: %w", err)
	}
	manifest, err := DecodeManifest(raw)
	if err != nil {
		return nil, err
	}

	r := &Reader{manifest: manifest, dataStore: dataStore}
	if len(manifest.Layers) == 0 {
		return r, nil
	}

	layersStore, err := storage.OpenFileStore(filepath.Join(dir, layersFileName))
	if err != nil {
		return nil, fmt.Errorf("index: open layers file: %w", err)
	}
	r.layersStore = layersStore

	top := manifest.Layers[len(manifest.Layers)-1]
	r.rootPageSize = top.PageSize
	r.rootFirstKeys = manifest.RootPageFirstKeys
	for i := 0; i < top.NumPages; i++ {
		offset, length := pageWindow(top, i)
		pageBytes, err := layersStore.ReadAt(ctx, offset, length)
		if err != nil {
			return nil, fmt.Errorf("index: read root page %d: %w", i, err)
		}
		firstKey := manifest.DatasetMinKey
		if i < len(r.rootFirstKeys) {
			firstKey = r.rootFirstKeys[i]
		}
		r.rootPages = append(r.rootPages, layer.DecodePage(pageBytes, manifest.Dtype, top.IsLinear, firstKey))
	}
	return r, nil
}

// pageWindow computes page i's absolute offset and clamped length within
// lm's blob segment, so a read never overruns into the next layer's bytes
// packed into the same combined layers file.
func pageWindow(lm LayerMeta, pageIndex int) (offset uint64, length uint32) {
	offsetWithinLayer := uint64(pageIndex) * uint64(lm.PageSize)
	offset = lm.BlobOffset + offsetWithinLayer
	remaining := lm.BlobLength - offsetWithinLayer
	if remaining > uint64(lm.PageSize) {
		remaining = uint64(lm.PageSize)
	}
	return offset, uint32(remaining)
}

// candidatePageIndices lists every page of a numPages-page layer that ext
// overlaps, in ascending order. A step piece's extent always lands in
// exactly one page; a band piece's centered, 2*pageSize-wide extent (§8.1)
// can straddle up to three.
func candidatePageIndices(ext common.PageExtent, pageSize int, numPages int) []int {
	if ext.Length == 0 || pageSize <= 0 {
		return nil
	}
	start := int(ext.Offset / uint64(pageSize))
	end := int((ext.Offset + uint64(ext.Length) - 1) / uint64(pageSize))
	if start < 0 {
		start = 0
	}
	if end >= numPages {
		end = numPages - 1
	}
	if start > end {
		return nil
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}

// rootPageFor returns the root page covering key, by binary-searching the
// cached per-page first keys.
func (r *Reader) rootPageFor(key common.Key) int {
	idx := sort.Search(len(r.rootFirstKeys), func(i int) bool { return r.rootFirstKeys[i] > key })
	if idx == 0 {
		return 0
	}
	return idx - 1
}

// Depth reports how many storage reads, beyond the cached root, a Get
// costs: one per stacked layer below the root, plus the final dataset
// read.
func (r *Reader) Depth() int {
	if len(r.manifest.Layers) == 0 {
		return 0
	}
	return len(r.manifest.Layers) // layers below root + final dataset read, same count
}

// Get resolves key to its value. It walks the manifest's layers from the
// cached root down to the dataset, fetching one page per intermediate
// layer (or each overlapped page in turn, for a band piece's window), then
// resolves the exact record within the final
// bounded dataset extent.
func (r *Reader) Get(ctx context.Context, key common.Key) ([]byte, error) {
	if len(r.manifest.Layers) == 0 {
		return nil, ErrNoIndex
	}
	if key < r.manifest.DatasetMinKey {
		return nil, ErrNotFound
	}

	rootIdx := r.rootPageFor(key)
	ext, childFirstKey, ok := r.rootPages[rootIdx].Lookup(key, r.rootPageSize)
	if !ok {
		return nil, ErrNotFound
	}

	// descend from the layer just below root down to layer 1 (closest to
	// the data), fetching one page per layer — or, when a band piece's
	// centered window (§8.1) straddles a page boundary, trying each
	// overlapped page in turn until one resolves key.
	layers := r.manifest.Layers
	for i := len(layers) - 2; i >= 0; i-- {
		lm := layers[i]
		resolved := false
		for _, pageIndex := range candidatePageIndices(ext, lm.PageSize, lm.NumPages) {
			pageOffset, readLen := pageWindow(lm, pageIndex)
			pageBytes, err := r.layersStore.ReadAt(ctx, pageOffset, readLen)
			if err != nil {
				return nil, fmt.Errorf("index: read layer %d page: %w", lm.LayerIndex, err)
			}
			page := layer.DecodePage(pageBytes, r.manifest.Dtype, lm.IsLinear, childFirstKey)
			next, nextFirstKey, ok := page.Lookup(key, lm.PageSize)
			if !ok {
				continue
			}
			ext, childFirstKey = next, nextFirstKey
			resolved = true
			break
		}
		if !resolved {
			return nil, ErrNotFound
		}
	}

	// final read: a bounded window of the dataset itself.
	dataBytes, err := r.dataStore.ReadAt(ctx, ext.Offset, ext.Length)
	if err != nil {
		return nil, fmt.Errorf("index: read dataset extent: %w", err)
	}
	return scanRecords(dataBytes, r.manifest.Dtype, key)
}

// scanRecords linearly scans a fetched dataset extent for key, decoding
// records in the layout dataset.WriteDatasetFile writes them in: key, then
// a 4-byte length-prefixed value.
func scanRecords(data []byte, dtype common.Dtype, key common.Key) ([]byte, error) {
	off := 0
	width := dtype.Width()
	for off+width+4 <= len(data) {
		var k common.Key
		if dtype == common.DtypeUint32 {
			k = common.Key(beUint32(data[off : off+4]))
		} else {
			k = beUint64(data[off : off+8])
		}
		off += width
		valLen := int(beUint32(data[off : off+4]))
		off += 4
		if off+valLen > len(data) {
			break
		}
		if k == key {
			val := make([]byte, valLen)
			copy(val, data[off:off+valLen])
			return val, nil
		}
		off += valLen
	}
	return nil, ErrNotFound
}

func beUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func beUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func (r *Reader) Close() error {
	if r.layersStore != nil {
		return r.layersStore.Close()
	}
	return nil
}
