package model

import (
	"airindex/pkg/common"
	"airindex/pkg/keybuffer"
	"airindex/pkg/profile"
)

// StepDrafter fits constant-offset pieces greedily left to right (§4.2
// "step"): extend the current piece while its position spread stays within
// the page's error bound, otherwise close it and start a new one at the
// current key.
type StepDrafter struct{}

func (StepDrafter) ID() string { return "step" }

func (StepDrafter) Fit(kb *keybuffer.KeyBuffer, pageSize int, recordSize int, prof profile.StorageProfile) (ModelDraft, error) {
	n := kb.Len()
	if n == 0 {
		return ModelDraft{}, &FitError{DrafterID: "step", PageSize: pageSize, Reason: "empty key buffer"}
	}
	limit := maxErrBytes(pageSize)

	var pieces []common.Piece
	start := 0
	startPos := kb.At(0).Position
	for i := 0; i < n; i++ {
		// end is record i's own end offset: the next entry's position, which
		// is exactly record i's start + its length (§3 KeyBuffer is a packed
		// cumulative offset sequence) — bounding by this, not by record i's
		// start, is what keeps every byte of the piece's records inside the
		// [startPos, startPos+limit) window a reader later fetches.
		end := kb.PositionAt(i + 1)
		if end-startPos > limit && i > start {
			// record i itself doesn't fit the current piece: close
			// [start, i) here and start a new piece at i.
			pieces = append(pieces, common.Piece{
				LoKey: kb.At(start).Key,
				HiKey: keyBefore(kb, i),
				Child: common.PageExtent{Offset: uint64(startPos), Length: uint32(pageSize)},
			})
			start = i
			startPos = kb.At(i).Position
		}
	}
	// close the trailing piece exactly once, covering every key from start
	// through the last real key.
	pieces = append(pieces, common.Piece{
		LoKey: kb.At(start).Key,
		HiKey: kb.Closing().Key - 1,
		Child: common.PageExtent{Offset: uint64(startPos), Length: uint32(pageSize)},
	})

	return ModelDraft{
		DrafterID:   "step",
		PageSize:    pageSize,
		Pieces:      pieces,
		MaxErrBytes: limit,
		OwnCost:     prof.Cost(1, int64(pageSize)),
	}, nil
}

// keyBefore returns the key immediately preceding entry i's key (the
// previous real entry's key, per §6.2 "next page's first key equals the
// current page's last-piece upper bound + 1"). For i == n it is the last
// real key.
func keyBefore(kb *keybuffer.KeyBuffer, i int) common.Key {
	if i >= kb.Len() {
		return kb.At(kb.Len() - 1).Key
	}
	return kb.At(i).Key - 1
}
