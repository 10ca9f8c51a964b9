// Package layer builds and serves one layer of the index: grouping a
// drafter's pieces into fixed-size pages (§4.3), and answering
// page-local/"which page" lookups at query time.
package layer

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"airindex/pkg/common"
	"airindex/pkg/keybuffer"
	"airindex/pkg/model"
)

// pieceRecordSize returns the fixed on-disk size of one piece record for a
// drafter's output (§6.2 "Page wire format"): key + offset for step, plus
// an 8-byte f64 slope for band pieces.
func pieceRecordSize(dtype common.Dtype, isLinear bool) int {
	size := dtype.Width() + 8 // key + offset(8)
	if isLinear {
		size += 8 // slope(8, f64)
	}
	return size
}

const pageHeaderSize = 8 // 4B piece_count + 4B reserved

// Layer is one materialized level of the index: a sequence of fixed-size
// pages (the last may be short), each holding a whole number of pieces
// (§3 Layer invariant).
type Layer struct {
	DrafterID string
	PageSize  int
	Dtype     common.Dtype
	IsLinear  bool
	Pages     [][]byte // pages[i] is exactly PageSize bytes, except the last
	// firstKeys[i] is the lowest key covered by pages[i] — used both to
	// build the parent layer's synthetic KeyBuffer and to route a key to
	// its page during a parent page's lookup.
	firstKeys []common.Key
}

// Build groups a ModelDraft's pieces into PageSize-byte pages (§4.3).
// Every page except the last is padded to exactly PageSize bytes so that
// "page i sits at byte offset i*PageSize" (§6.2) holds without a separate
// index.
func Build(draft model.ModelDraft, dtype common.Dtype) (*Layer, error) {
	if len(draft.Pieces) == 0 {
		return nil, fmt.Errorf("layer: cannot build from an empty draft")
	}
	isLinear := draft.Pieces[0].IsLinear
	recSize := pieceRecordSize(dtype, isLinear)
	perPage := (draft.PageSize - pageHeaderSize) / recSize
	if perPage < 1 {
		return nil, fmt.Errorf("layer: page size %d too small to hold even one %s piece record (%d bytes + %d byte header)", draft.PageSize, draft.DrafterID, recSize, pageHeaderSize)
	}

	var pages [][]byte
	var firstKeys []common.Key
	for start := 0; start < len(draft.Pieces); start += perPage {
		end := start + perPage
		if end > len(draft.Pieces) {
			end = len(draft.Pieces)
		}
		chunk := draft.Pieces[start:end]
		page := encodePage(chunk, dtype, isLinear)
		isLastPage := end == len(draft.Pieces)
		if !isLastPage && len(page) < draft.PageSize {
			// every page but the last is padded to PageSize so that
			// "page i sits at byte offset i*PageSize" holds exactly.
			padded := make([]byte, draft.PageSize)
			copy(padded, page)
			page = padded
		}
		pages = append(pages, page)
		firstKeys = append(firstKeys, chunk[0].LoKey)
	}

	return &Layer{
		DrafterID: draft.DrafterID,
		PageSize:  draft.PageSize,
		Dtype:     dtype,
		IsLinear:  isLinear,
		Pages:     pages,
		firstKeys: firstKeys,
	}, nil
}

func encodePage(pieces []common.Piece, dtype common.Dtype, isLinear bool) []byte {
	recSize := pieceRecordSize(dtype, isLinear)
	buf := make([]byte, pageHeaderSize+len(pieces)*recSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(pieces)))
	// buf[4:8] reserved, left zero.

	off := pageHeaderSize
	for _, p := range pieces {
		writeKey(buf[off:], p.HiKey, dtype) // next page's first key = this piece's hi key + 1 (§6.2); store hi key here so the reader can recompute the boundary.
		off += dtype.Width()
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(p.Child.Offset))
		off += 8
		if isLinear {
			binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(p.Slope))
			off += 8
		}
	}
	return buf
}

func writeKey(dst []byte, k common.Key, dtype common.Dtype) {
	if dtype == common.DtypeUint32 {
		binary.LittleEndian.PutUint32(dst, uint32(k))
	} else {
		binary.LittleEndian.PutUint64(dst, k)
	}
}

func readKey(src []byte, dtype common.Dtype) common.Key {
	if dtype == common.DtypeUint32 {
		return common.Key(binary.LittleEndian.Uint32(src))
	}
	return binary.LittleEndian.Uint64(src)
}

// NumPages reports how many pages this layer occupies.
func (l *Layer) NumPages() int { return len(l.Pages) }

// FirstKeys returns each page's first key, in page order — a root layer
// with more than one page needs this to route a lookup to its starting
// page (§4.4: the root is cached whole, not addressed through a parent).
func (l *Layer) FirstKeys() []common.Key {
	out := make([]common.Key, len(l.firstKeys))
	copy(out, l.firstKeys)
	return out
}

// PageExtent returns page i's byte range on this layer's blob: offset is
// always i*PageSize (§3 "page i's byte extent ... is deterministic from i
// and P"); length is the page's real encoded size (short only for the last
// page).
func (l *Layer) PageExtent(i int) common.PageExtent {
	return common.PageExtent{Offset: uint64(i) * uint64(l.PageSize), Length: uint32(len(l.Pages[i]))}
}

// Blob concatenates every page into the layer's on-storage byte stream.
func (l *Layer) Blob() []byte {
	out := make([]byte, 0, len(l.Pages)*l.PageSize)
	for _, p := range l.Pages {
		out = append(out, p...)
	}
	return out
}

// RootFits reports whether this layer is small enough to serve as the
// index root: a single page (§4.4 constraint (a)).
func (l *Layer) RootFits(rootCap int) bool {
	return len(l.Pages) == 1 && len(l.Pages[0]) <= rootCap
}

// SyntheticKeyBuffer turns this layer's pages into the "new key sequence"
// the next planner stage fits against (§4.4 stage j→j+1): key = the page's
// first piece's lo_key, position = page index * PageSize.
func (l *Layer) SyntheticKeyBuffer() *keybuffer.KeyBuffer {
	entries := make([]common.KeyPosition, len(l.firstKeys)+1)
	for i, k := range l.firstKeys {
		entries[i] = common.KeyPosition{Key: k, Position: int64(i) * int64(l.PageSize)}
	}
	entries[len(l.firstKeys)] = common.KeyPosition{
		Key:      l.MaxKey() + 1,
		Position: int64(len(l.Pages)) * int64(l.PageSize),
	}
	return keybuffer.FromSorted(entries)
}

// MaxKey is the largest key this layer covers (the last page's last piece's
// hi key, recovered from the encoded page so callers don't need the
// original ModelDraft around).
func (l *Layer) MaxKey() common.Key {
	last := len(l.Pages) - 1
	p := DecodePage(l.Pages[last], l.Dtype, l.IsLinear, l.firstKeys[last])
	return p.LastHiKey()
}

// Page is the in-memory parsed form of one on-storage page. It is the unit
// an IndexReader fetches on demand (§4.5): everything needed to route a key
// to its child extent lives in these few pieces, not in the rest of the
// layer.
type Page struct {
	pieces []parsedPiece
}

// parsedPiece mirrors common.Piece, but band pieces have no encoded
// intercept: Lookup recovers it from the piece's own (loKey, offset) anchor
// point rather than a separately-encoded field — §6.2 only spends bytes on hi_key, offset
// and slope, so the reader must reconstruct the line itself.
type parsedPiece struct {
	loKey, hiKey common.Key
	offset       uint64
	slope        float64
	isLinear     bool
}

// DecodePage parses one on-storage page. firstKey is the lowest key the
// page covers — the caller learns it from the parent piece that routed the
// lookup here (a piece's LoKey is exactly its child page's first key,
// since the child layer was fit against a synthetic buffer keyed that way)
// — or, for the layer actually holding pages[0], it is simply the layer's
// minimum key.
func DecodePage(raw []byte, dtype common.Dtype, isLinear bool, firstKey common.Key) Page {
	count := binary.LittleEndian.Uint32(raw[0:4])
	pieces := make([]parsedPiece, count)
	off := pageHeaderSize
	for i := 0; i < int(count); i++ {
		hiKey := readKey(raw[off:], dtype)
		off += dtype.Width()
		offset := binary.LittleEndian.Uint64(raw[off : off+8])
		off += 8
		var slope float64
		if isLinear {
			slope = math.Float64frombits(binary.LittleEndian.Uint64(raw[off : off+8]))
			off += 8
		}
		var loKey common.Key
		if i == 0 {
			loKey = firstKey
		} else {
			loKey = pieces[i-1].hiKey + 1
		}
		pieces[i] = parsedPiece{loKey: loKey, hiKey: hiKey, offset: offset, slope: slope, isLinear: isLinear}
	}
	return Page{pieces: pieces}
}

// Lookup resolves key within a decoded page to the bounded extent a reader
// should fetch next (§4.3). childFirstKey is the matched piece's own
// lo_key — exactly the first key of the child page this extent points at,
// since a child layer is always fit against a synthetic buffer keyed that
// way (§4.4) — callers must thread it into the next DecodePage call. ok is
// false if key falls outside every piece on the page.
func (p Page) Lookup(key common.Key, pageSize int) (ext common.PageExtent, childFirstKey common.Key, ok bool) {
	idx := sort.Search(len(p.pieces), func(i int) bool { return p.pieces[i].hiKey >= key })
	if idx >= len(p.pieces) || key < p.pieces[idx].loKey {
		return common.PageExtent{}, 0, false
	}
	piece := p.pieces[idx]
	if !piece.isLinear {
		// a step piece's recorded offset is the start of its first record,
		// which by construction is a true lower bound on every record the
		// piece covers (§4.2 "step"): [offset, offset+pageSize) alone
		// brackets the match.
		return common.PageExtent{Offset: piece.offset, Length: uint32(pageSize)}, piece.loKey, true
	}
	// a band piece's slope/intercept line is fit through the error cone's
	// midline, not a lower bound (§4.2 "band"), so the true offset can fall
	// on either side of the prediction by up to pageSize (§8.1's error
	// bound). offset/slope anchor the line at the piece's own lo_key (where
	// the drafter evaluated it); recover the intercept from that anchor,
	// predict at the query key, then read a window centered on the
	// prediction instead of one starting at it.
	intercept := float64(piece.offset) - piece.slope*float64(piece.loKey)
	pred := int64(piece.slope*float64(key) + intercept)
	lo := common.Clamp(pred-int64(pageSize), 0, math.MaxInt64)
	return common.PageExtent{Offset: uint64(lo), Length: uint32(2 * pageSize)}, piece.loKey, true
}

// LastHiKey returns the final piece's hi key — used by MaxKey.
func (p Page) LastHiKey() common.Key { return p.pieces[len(p.pieces)-1].hiKey }

// Lookup resolves key within page i of this layer, a convenience for
// callers (tests, in-process builders) holding a whole Layer in memory; an
// IndexReader instead fetches one page at a time via DecodePage.
func (l *Layer) Lookup(pageIndex int, key common.Key) (common.PageExtent, bool) {
	p := DecodePage(l.Pages[pageIndex], l.Dtype, l.IsLinear, l.firstKeys[pageIndex])
	ext, _, ok := p.Lookup(key, l.PageSize)
	return ext, ok
}
