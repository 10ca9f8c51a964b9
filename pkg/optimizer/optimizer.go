// Package optimizer implements the IndexPlanner: the bottom-up search that
// decides, layer by layer, which drafter to stack next and when stacking
// stops paying for itself (§4.4).
package optimizer

import (
	"math"
	"sync"
	"time"

	"airindex/pkg/common"
	"airindex/pkg/keybuffer"
	"airindex/pkg/layer"
	"airindex/pkg/model"
	"airindex/pkg/profile"
)

// Mode selects how the planner decides when to stop stacking layers.
type Mode string

const (
	// ModeAdaptive keeps adding layers only while doing so is cheaper than
	// fetching the current layer's data outright ("enb" — explore, no
	// bound).
	ModeAdaptive Mode = "enb"
	// ModeExactLayers forces exactly Options.TargetLayers layers,
	// independent of projected cost ("enb_layers").
	ModeExactLayers Mode = "enb_layers"
)

// Options configures one planning run.
type Options struct {
	Mode           Mode
	TargetLayers   int // used only when Mode == ModeExactLayers
	TopKCandidates int // candidates carried forward per layer (§4.4)
	PageSize       int // used when PageSizes is empty
	// PageSizes is the load palette (§4.4 "low P, high P, multiplier r"):
	// every drafter is fit once per page size, all combinations competing
	// in the same top-K merge. Build one with BuildPalette. Leave nil to
	// fall back to the single PageSize above.
	PageSizes  []int
	RecordSize int
	Dtype      common.Dtype
}

// pageSizes returns the palette to fit against: PageSizes if set, else the
// single PageSize as a one-element palette.
func (o Options) pageSizes() []int {
	if len(o.PageSizes) > 0 {
		return o.PageSizes
	}
	return []int{o.PageSize}
}

// BuildPalette produces the geometric load palette §4.4 names: P0=low,
// P_{i+1}=ceil(P_i*multiplier), up to and including high.
func BuildPalette(low, high int, multiplier float64) []int {
	if low <= 0 || high < low || multiplier <= 1 {
		return []int{low}
	}
	var out []int
	p := float64(low)
	for int(p) <= high {
		out = append(out, int(p))
		next := math.Ceil(p * multiplier)
		if int(next) == int(p) {
			next = p + 1 // guard against a multiplier too close to 1 stalling progress
		}
		p = next
	}
	return out
}

// LayerPlan is one chosen stacked layer, ordered from the data (layer 1)
// up toward the root.
type LayerPlan struct {
	LayerIndex int
	Draft      model.ModelDraft
	Layer      *layer.Layer
}

// Plan is the result of a planning run: the chosen stack of layers plus
// RootRaw, which is true only when no layer was built at all because a
// plain fetch of the dataset was cheaper than any index (§4.4
// "no_index_cost").
type Plan struct {
	Layers    []LayerPlan
	RootRaw   bool
	TotalCost time.Duration
}

// Plan runs the bottom-up top-K search starting from the dataset's key
// buffer and returns the stacked set of layers to persist (§4.4).
func Plan(kb *keybuffer.KeyBuffer, drafters []model.Drafter, prof profile.StorageProfile, opts Options) (*Plan, error) {
	if opts.TopKCandidates <= 0 {
		opts.TopKCandidates = 5 // matches the teacher-adjacent Rust planner's default
	}
	drafts, layers, cost, raw, err := planAtLayer(kb, drafters, prof, opts, 1)
	if err != nil {
		return nil, err
	}
	plan := &Plan{RootRaw: raw, TotalCost: cost}
	for i, d := range drafts {
		plan.Layers = append(plan.Layers, LayerPlan{LayerIndex: i + 1, Draft: d, Layer: layers[i]})
	}
	return plan, nil
}

func shouldBuild(noIndexCost, idealIndexCost time.Duration, layerIdx int, opts Options) bool {
	if opts.Mode == ModeExactLayers {
		return layerIdx <= opts.TargetLayers
	}
	return idealIndexCost < noIndexCost
}

// planAtLayer mirrors the reference planner's layer-at-a-time recursion:
// decide whether another layer is worth trying, fit the top-K drafters in
// parallel, and recurse into whichever candidate yields the cheapest total
// plan.
func planAtLayer(kb *keybuffer.KeyBuffer, drafters []model.Drafter, prof profile.StorageProfile, opts Options, layerIdx int) ([]model.ModelDraft, []*layer.Layer, time.Duration, bool, error) {
	noIndexCost := prof.Cost(1, kb.TotalBytes())
	idealIndexCost := prof.SequentialCost([]int64{1, 1})

	if !shouldBuild(noIndexCost, idealIndexCost, layerIdx, opts) {
		if opts.Mode == ModeExactLayers && layerIdx <= opts.TargetLayers {
			return nil, nil, 0, false, &PlanError{LayerIndex: layerIdx, Reason: "target layer count not satisfied"}
		}
		return nil, nil, noIndexCost, true, nil
	}

	candidates := fitAll(kb, drafters, opts, prof)
	model.SortDrafts(candidates)
	if len(candidates) > opts.TopKCandidates {
		candidates = candidates[:opts.TopKCandidates]
	}

	type result struct {
		drafts []model.ModelDraft
		layers []*layer.Layer
		cost   time.Duration
		ok     bool
	}
	results := make([]result, len(candidates))
	var wg sync.WaitGroup
	for i, draft := range candidates {
		wg.Add(1)
		go func(i int, draft model.ModelDraft) {
			defer wg.Done()
			lyr, err := layer.Build(draft, opts.Dtype)
			if err != nil {
				return
			}
			childKB := lyr.SyntheticKeyBuffer()
			if childKB.TotalBytes() >= kb.TotalBytes()/2 {
				return // this layer didn't shrink the problem enough to be worth it
			}
			childDrafts, childLayers, childCost, _, err := planAtLayer(childKB, drafters, prof, opts, layerIdx+1)
			if err != nil {
				return
			}
			totalCost := childCost + prof.Cost(1, int64(draft.PageSize))
			results[i] = result{
				drafts: append([]model.ModelDraft{draft}, childDrafts...),
				layers: append([]*layer.Layer{lyr}, childLayers...),
				cost:   totalCost,
				ok:     true,
			}
		}(i, draft)
	}
	wg.Wait()

	var best *result
	for i := range results {
		if !results[i].ok {
			continue
		}
		if best == nil || results[i].cost < best.cost {
			best = &results[i]
		}
	}

	if best != nil && shouldBuild(noIndexCost, best.cost, layerIdx, opts) {
		return best.drafts, best.layers, best.cost, false, nil
	}

	if opts.Mode == ModeExactLayers && layerIdx <= opts.TargetLayers {
		return nil, nil, 0, false, &PlanError{LayerIndex: layerIdx, Reason: "target layer count not satisfied"}
	}
	return nil, nil, noIndexCost, true, nil
}

// fitAll fits every (drafter, page size) pair in the palette against kb in
// parallel, discarding the ones that fail (e.g. a band drafter that can't
// hit the error bound at any segment count). Grounded on the teacher's
// WAL-replay shard fan-out (hybrid_store.go recoverFromWAL): one goroutine
// per independent unit of work, joined with a WaitGroup.
func fitAll(kb *keybuffer.KeyBuffer, drafters []model.Drafter, opts Options, prof profile.StorageProfile) []model.ModelDraft {
	sizes := opts.pageSizes()
	type job struct {
		drafter  model.Drafter
		pageSize int
	}
	jobs := make([]job, 0, len(drafters)*len(sizes))
	for _, d := range drafters {
		for _, p := range sizes {
			jobs = append(jobs, job{drafter: d, pageSize: p})
		}
	}

	drafts := make([]model.ModelDraft, len(jobs))
	ok := make([]bool, len(jobs))
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			draft, err := j.drafter.Fit(kb, j.pageSize, opts.RecordSize, prof)
			if err != nil {
				return
			}
			drafts[i] = draft
			ok[i] = true
		}(i, j)
	}
	wg.Wait()

	out := make([]model.ModelDraft, 0, len(jobs))
	for i, v := range ok {
		if v {
			out = append(out, drafts[i])
		}
	}
	return out
}

// PlanError reports a planning failure for a specific layer, such as
// ModeExactLayers demanding more layers than the data supports.
type PlanError struct {
	LayerIndex int
	Reason     string
}

func (e *PlanError) Error() string {
	return "optimizer: layer " + itoa(e.LayerIndex) + ": " + e.Reason
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
