// Package model implements the drafter palette (§4.2): stateless fitters
// that turn a KeyBuffer window into one or more piecewise ModelDrafts under
// a page-size (load) budget.
package model

import (
	"sort"
	"time"

	"airindex/pkg/common"
	"airindex/pkg/keybuffer"
	"airindex/pkg/profile"
)

// ModelDraft is one drafter's proposal: an ordered, gap-free, overlap-free
// covering of the key range by Pieces, each with prediction error bounded
// by MaxErrBytes, plus the predicted cost of reading one page from this
// layer alone (§4.2 "predicted query cost of this layer alone").
type ModelDraft struct {
	DrafterID   string
	PageSize    int
	Pieces      []common.Piece
	MaxErrBytes int64
	OwnCost     time.Duration
}

// NumPieces is used by the tie-break rule (§4.2).
func (d ModelDraft) NumPieces() int { return len(d.Pieces) }

// Less implements the tie-break order from §4.2: lower cost first, then
// fewer pieces, then lexicographic (drafter_id, page size).
func Less(a, b ModelDraft) bool {
	if a.OwnCost != b.OwnCost {
		return a.OwnCost < b.OwnCost
	}
	if len(a.Pieces) != len(b.Pieces) {
		return len(a.Pieces) < len(b.Pieces)
	}
	if a.DrafterID != b.DrafterID {
		return a.DrafterID < b.DrafterID
	}
	return a.PageSize < b.PageSize
}

// SortDrafts orders drafts per the §4.2 tie-break, cheapest first.
func SortDrafts(drafts []ModelDraft) {
	sort.Slice(drafts, func(i, j int) bool { return Less(drafts[i], drafts[j]) })
}

// Drafter fits a KeyBuffer window to one ModelDraft at a given page size
// (§4.2). Implementations are deterministic and stateless: same (window,
// page size) always produces the same pieces.
type Drafter interface {
	ID() string
	Fit(kb *keybuffer.KeyBuffer, pageSize int, recordSize int, prof profile.StorageProfile) (ModelDraft, error)
}

// FitError reports that a drafter could not produce any piece within the
// page size's error bound (§7 FitError) — e.g. page size too small for the
// record size. The planner treats this as "skip this (drafter, P)
// candidate", not a fatal error.
type FitError struct {
	DrafterID string
	PageSize  int
	Reason    string
}

func (e *FitError) Error() string {
	return "model: " + e.DrafterID + " cannot fit at page size " + itoa(e.PageSize) + ": " + e.Reason
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// maxErrBytes is the practical error bound used by every drafter: a piece
// is valid as long as no predicted offset in it can be more than PageSize
// bytes away from the true offset, so a 2*PageSize-byte read centered on
// the prediction always contains the answer. recordSize only scales
// the error into the record-count units the GLOSSARY defines epsilon in;
// the byte bound enforced below is always PageSize.
func maxErrBytes(pageSize int) int64 { return int64(pageSize) }

// Drafters returns the step / band-greedy / band-equal palette by name,
// matching the `--index-drafters` flag vocabulary (§6.1).
func Drafters(names []string) ([]Drafter, error) {
	out := make([]Drafter, 0, len(names))
	for _, n := range names {
		switch n {
		case "step":
			out = append(out, StepDrafter{})
		case "band_greedy":
			out = append(out, BandGreedyDrafter{})
		case "band_equal":
			out = append(out, BandEqualDrafter{})
		default:
			return nil, &FitError{DrafterID: n, Reason: "unknown drafter"}
		}
	}
	return out, nil
}
