package model

import (
	"airindex/pkg/common"
	"airindex/pkg/keybuffer"
	"airindex/pkg/profile"
)

// BandEqualDrafter partitions the key range into equal-count segments and
// fits one least-squares line per segment (§4.2 "band-equal"), doubling the
// segment count until every segment's error fits the page budget. This
// generalizes the teacher's two-layer RMIModel — there, a fixed fanout of
// equal key-range buckets each got one LinearModel; here the bucket count
// is chosen adaptively per page size instead of hardcoded, and the drafter
// can be stacked at any layer instead of only as RMI's first layer.
type BandEqualDrafter struct{}

func (BandEqualDrafter) ID() string { return "band_equal" }

func (BandEqualDrafter) Fit(kb *keybuffer.KeyBuffer, pageSize int, recordSize int, prof profile.StorageProfile) (ModelDraft, error) {
	n := kb.Len()
	if n == 0 {
		return ModelDraft{}, &FitError{DrafterID: "band_equal", PageSize: pageSize, Reason: "empty key buffer"}
	}
	eps := maxErrBytes(pageSize)

	segments := 1
	const maxSegments = 1 << 20
	for {
		pieces, ok := fitEqualSegments(kb, segments, eps, pageSize)
		if ok {
			return ModelDraft{
				DrafterID:   "band_equal",
				PageSize:    pageSize,
				Pieces:      pieces,
				MaxErrBytes: eps,
				OwnCost:     prof.Cost(1, int64(pageSize)),
			}, nil
		}
		if segments >= n || segments >= maxSegments {
			return ModelDraft{}, &FitError{DrafterID: "band_equal", PageSize: pageSize, Reason: "no segment count satisfies the error bound"}
		}
		segments *= 2
		if segments > n {
			segments = n
		}
	}
}

// fitEqualSegments splits the n keys into `segments` equal-count groups and
// least-squares-fits each. Returns ok=false the moment any segment's max
// error exceeds eps, so the caller can retry with more segments.
func fitEqualSegments(kb *keybuffer.KeyBuffer, segments int, eps int64, pageSize int) ([]common.Piece, bool) {
	n := kb.Len()
	pieces := make([]common.Piece, 0, segments)
	base := n / segments
	rem := n % segments

	start := 0
	for s := 0; s < segments; s++ {
		size := base
		if s < rem {
			size++
		}
		if size == 0 {
			continue
		}
		end := start + size // exclusive, real-key index

		var fitter linearFitter
		points := make([]common.KeyPosition, 0, size)
		for i := start; i < end; i++ {
			kp := kb.At(i)
			fitter.add(kp.Key, kp.Position)
			points = append(points, kp)
		}
		slope, intercept := fitter.solve()
		if maxAbsError(points, slope, intercept) > eps {
			return nil, false
		}

		hiKey := keyBefore(kb, end)
		pieces = append(pieces, common.Piece{
			LoKey:     kb.At(start).Key,
			HiKey:     hiKey,
			Child:     common.PageExtent{Offset: uint64(int64(slope*float64(kb.At(start).Key) + intercept)), Length: uint32(pageSize)},
			Slope:     slope,
			Intercept: intercept,
			IsLinear:  true,
		})
		start = end
	}
	return pieces, true
}
