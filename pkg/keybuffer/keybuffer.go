// Package keybuffer holds the sorted, strictly increasing (key, offset)
// sequence a Drafter fits against (§3 KeyBuffer). It is produced once by
// scanning the source dataset's key column and shared read-only by every
// build-time worker (§9 "Shared KeyBuffer").
package keybuffer

import (
	"fmt"
	"sort"

	"airindex/pkg/common"
)

// KeyBuffer is a sorted array of (Key, DataOffset): strictly increasing Key,
// last offset equal to the dataset's byte length (§3).
type KeyBuffer struct {
	entries []common.KeyPosition
}

// Build sorts records by key, collapses duplicate keys to the lowest offset
// (§3 Key invariant), and appends a closing entry whose position is the
// dataset's total byte length so every piece's upper bound is well-defined.
func Build(records []common.Record, datasetByteLength int64) (*KeyBuffer, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("keybuffer: empty record set")
	}

	sorted := make([]common.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	entries := make([]common.KeyPosition, 0, len(sorted))
	offset := int64(0)
	var lastKey common.Key
	haveLast := false
	for _, r := range sorted {
		if haveLast && r.Key == lastKey {
			// duplicate key: keep the lowest offset, already recorded.
			offset += int64(len(r.Value))
			continue
		}
		entries = append(entries, common.KeyPosition{Key: r.Key, Position: offset})
		lastKey = r.Key
		haveLast = true
		offset += int64(len(r.Value))
	}

	if datasetByteLength < offset {
		datasetByteLength = offset
	}
	entries = append(entries, common.KeyPosition{Key: entries[len(entries)-1].Key + 1, Position: datasetByteLength})

	return &KeyBuffer{entries: entries}, nil
}

// FromSorted wraps an already sorted, already deduplicated key/position
// sequence (used internally by the planner to build each layer's synthetic
// "key sequence" out of the previous layer's pieces, §4.4 stage j→j+1).
// The caller is responsible for appending the closing entry.
func FromSorted(entries []common.KeyPosition) *KeyBuffer {
	return &KeyBuffer{entries: entries}
}

// Len reports the number of real (non-closing) entries.
func (kb *KeyBuffer) Len() int {
	if len(kb.entries) == 0 {
		return 0
	}
	return len(kb.entries) - 1
}

// At returns the i-th (key, position) entry, 0 <= i < Len().
func (kb *KeyBuffer) At(i int) common.KeyPosition { return kb.entries[i] }

// Closing returns the closing entry (its Position is the upper bound for
// the last real piece; its Key is one past the last real key).
func (kb *KeyBuffer) Closing() common.KeyPosition { return kb.entries[len(kb.entries)-1] }

// PositionAt returns the position recorded for entry i, where i may equal
// Len() to fetch the closing entry's position (the upper bound of the last
// piece).
func (kb *KeyBuffer) PositionAt(i int) int64 { return kb.entries[i].Position }

// MinKey and MaxKey are the smallest and largest real keys in the buffer.
func (kb *KeyBuffer) MinKey() common.Key { return kb.entries[0].Key }
func (kb *KeyBuffer) MaxKey() common.Key { return kb.entries[kb.Len()-1].Key }

// TotalBytes is the byte span covered by the buffer (closing position minus
// the first entry's position) — what the planner compares against
// "fetch the whole data layer" (§4.4, `no_index_cost`).
func (kb *KeyBuffer) TotalBytes() int64 {
	return kb.Closing().Position - kb.entries[0].Position
}

// Slice returns the sub-range [lo, hi) as a standalone KeyBuffer, including
// a synthesized closing entry at hi (or the original closing entry if
// hi == Len()).
func (kb *KeyBuffer) Slice(lo, hi int) *KeyBuffer {
	sub := make([]common.KeyPosition, 0, hi-lo+1)
	sub = append(sub, kb.entries[lo:hi]...)
	sub = append(sub, kb.entries[hi])
	return &KeyBuffer{entries: sub}
}

// Window holds the arguments a Drafter consumes: the buffer plus the
// load budget it must respect.
type Window struct {
	Buffer   *KeyBuffer
	PageSize int
}
