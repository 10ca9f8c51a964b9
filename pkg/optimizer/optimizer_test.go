package optimizer

import (
	"testing"
	"time"

	"airindex/pkg/common"
	"airindex/pkg/keybuffer"
	"airindex/pkg/model"
	"airindex/pkg/profile"
)

func buildKeyBuffer(t *testing.T, n int) *keybuffer.KeyBuffer {
	t.Helper()
	records := make([]common.Record, n)
	for i := 0; i < n; i++ {
		records[i] = common.Record{Key: common.Key(i * 8), Value: []byte("value")}
	}
	kb, err := keybuffer.Build(records, int64(n*24))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return kb
}

func TestPlanStacksLayersForLargeDataset(t *testing.T) {
	kb := buildKeyBuffer(t, 200000)
	drafters, err := model.Drafters([]string{"step", "band_greedy", "band_equal"})
	if err != nil {
		t.Fatalf("Drafters: %v", err)
	}
	prof := profile.NewAffineProfile(time.Millisecond, 200) // high per-request latency favors indexing large scans

	plan, err := Plan(kb, drafters, prof, Options{
		Mode:           ModeAdaptive,
		TopKCandidates: 3,
		PageSize:       4096,
		RecordSize:     16,
		Dtype:          common.DtypeUint64,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Layers) == 0 {
		t.Fatal("expected at least one stacked layer for a large dataset")
	}
	for i, lp := range plan.Layers {
		if lp.LayerIndex != i+1 {
			t.Errorf("layer %d: LayerIndex=%d, want %d", i, lp.LayerIndex, i+1)
		}
		if lp.Layer == nil {
			t.Errorf("layer %d: nil materialized layer", i)
		}
	}
}

func TestPlanExactLayersHonorsTarget(t *testing.T) {
	kb := buildKeyBuffer(t, 5000)
	drafters, err := model.Drafters([]string{"step"})
	if err != nil {
		t.Fatalf("Drafters: %v", err)
	}
	prof := profile.NewAffineProfile(time.Millisecond, 100)

	plan, err := Plan(kb, drafters, prof, Options{
		Mode:           ModeExactLayers,
		TargetLayers:   1,
		TopKCandidates: 3,
		PageSize:       4096,
		RecordSize:     16,
		Dtype:          common.DtypeUint64,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Layers) != 1 {
		t.Errorf("got %d layers, want exactly 1", len(plan.Layers))
	}
}

func TestBuildPalette(t *testing.T) {
	got := BuildPalette(256, 4096, 2.0)
	want := []int{256, 512, 1024, 2048, 4096}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("palette[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBuildPaletteDegenerateInputsFallBackToLow(t *testing.T) {
	if got := BuildPalette(0, 100, 2.0); len(got) != 1 || got[0] != 0 {
		t.Errorf("low<=0: got %v", got)
	}
	if got := BuildPalette(100, 50, 2.0); len(got) != 1 || got[0] != 100 {
		t.Errorf("high<low: got %v", got)
	}
	if got := BuildPalette(100, 200, 1.0); len(got) != 1 || got[0] != 100 {
		t.Errorf("multiplier<=1: got %v", got)
	}
}

func TestPlanSweepsLoadPalette(t *testing.T) {
	kb := buildKeyBuffer(t, 200000)
	drafters, err := model.Drafters([]string{"step", "band_greedy"})
	if err != nil {
		t.Fatalf("Drafters: %v", err)
	}
	prof := profile.NewAffineProfile(time.Millisecond, 200)

	plan, err := Plan(kb, drafters, prof, Options{
		Mode:           ModeAdaptive,
		TopKCandidates: 3,
		PageSizes:      BuildPalette(1024, 8192, 2.0),
		RecordSize:     16,
		Dtype:          common.DtypeUint64,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan.Layers) == 0 {
		t.Fatal("expected at least one stacked layer for a large dataset")
	}
	for i, lp := range plan.Layers {
		if lp.Draft.PageSize <= 0 {
			t.Errorf("layer %d: draft has no page size recorded", i)
		}
	}
}

func TestPlanTinyDatasetSkipsIndexing(t *testing.T) {
	kb := buildKeyBuffer(t, 3)
	drafters, err := model.Drafters([]string{"step"})
	if err != nil {
		t.Fatalf("Drafters: %v", err)
	}
	prof := profile.NewAffineProfile(time.Millisecond, 100)

	plan, err := Plan(kb, drafters, prof, Options{
		Mode:           ModeAdaptive,
		TopKCandidates: 3,
		PageSize:       4096,
		RecordSize:     16,
		Dtype:          common.DtypeUint64,
	})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !plan.RootRaw {
		t.Error("a 3-key dataset should not be worth indexing")
	}
}
