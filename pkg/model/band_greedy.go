package model

import (
	"math"

	"airindex/pkg/common"
	"airindex/pkg/keybuffer"
	"airindex/pkg/profile"
)

// BandGreedyDrafter fits linear pieces left to right using the standard
// shrinking-cone PLA construction (§4.2 "band-greedy"): maintain the set of
// slopes for which the line through the piece's first point stays within
// ±epsilon of every point seen so far, and close the piece the moment no
// slope satisfies the newest point.
type BandGreedyDrafter struct{}

func (BandGreedyDrafter) ID() string { return "band_greedy" }

func (BandGreedyDrafter) Fit(kb *keybuffer.KeyBuffer, pageSize int, recordSize int, prof profile.StorageProfile) (ModelDraft, error) {
	n := kb.Len()
	if n == 0 {
		return ModelDraft{}, &FitError{DrafterID: "band_greedy", PageSize: pageSize, Reason: "empty key buffer"}
	}
	eps := float64(maxErrBytes(pageSize))

	var pieces []common.Piece
	start := 0
	x0 := float64(kb.At(0).Key)
	y0 := float64(kb.At(0).Position)
	slopeLow, slopeHigh := math.Inf(-1), math.Inf(1)

	closePiece := func(endExclusive int) {
		var slope, intercept float64
		if math.IsInf(slopeLow, -1) || math.IsInf(slopeHigh, 1) {
			// single-point piece: any slope works, use a flat line.
			slope, intercept = 0, y0
		} else {
			slope = (slopeLow + slopeHigh) / 2
			intercept = y0 - slope*x0
		}
		hi := keyBefore(kb, endExclusive)
		pieces = append(pieces, common.Piece{
			LoKey:     kb.At(start).Key,
			HiKey:     hi,
			Child:     common.PageExtent{Offset: uint64(int64(slope*x0 + intercept)), Length: uint32(pageSize)},
			Slope:     slope,
			Intercept: intercept,
			IsLinear:  true,
		})
	}

	for i := 1; i <= n; i++ {
		var xi, yi float64
		if i == n {
			// force a close at the end of the buffer.
			closePiece(n)
			break
		}
		xi = float64(kb.At(i).Key)
		yi = float64(kb.At(i).Position)

		sMin := ((yi - eps) - y0) / (xi - x0)
		sMax := ((yi + eps) - y0) / (xi - x0)
		if sMin > sMax {
			sMin, sMax = sMax, sMin
		}
		newLow := math.Max(slopeLow, sMin)
		newHigh := math.Min(slopeHigh, sMax)

		if newLow > newHigh {
			// cone collapsed: close [start, i) and restart at i.
			closePiece(i)
			start = i
			x0, y0 = xi, yi
			slopeLow, slopeHigh = math.Inf(-1), math.Inf(1)
		} else {
			slopeLow, slopeHigh = newLow, newHigh
		}
	}

	return ModelDraft{
		DrafterID:   "band_greedy",
		PageSize:    pageSize,
		Pieces:      pieces,
		MaxErrBytes: int64(eps),
		OwnCost:     prof.Cost(1, int64(pageSize)),
	}, nil
}
