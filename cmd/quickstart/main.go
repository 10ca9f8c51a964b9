// Command quickstart is a self-contained walkthrough: build a small layered
// index over synthetic keys, look one up, and print the row position stored
// as its value. The spiritual replacement for the teacher's cmd/example, which dialed
// a running server — this one has no server dependency since the core index
// is just a local read path (§6.1 [ADD]).
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"time"

	"airindex/pkg/common"
	"airindex/pkg/dataset"
	"airindex/pkg/index"
	"airindex/pkg/keybuffer"
	"airindex/pkg/model"
	"airindex/pkg/optimizer"
	"airindex/pkg/profile"
	"airindex/pkg/storage"
)

func main() {
	dir, err := os.MkdirTemp("", "airindex-quickstart")
	if err != nil {
		log.Fatalf("quickstart: %v", err)
	}
	defer os.RemoveAll(dir)

	const n = 500000
	keys := make([]common.Key, n)
	for i := range keys {
		keys[i] = common.Key(i * 8)
	}
	records := dataset.BuildRecords(keys)

	datasetPath := dir + "/dataset.bin"
	datasetSize, err := dataset.WriteDatasetFile(datasetPath, records, common.DtypeUint64)
	if err != nil {
		log.Fatalf("quickstart: write dataset: %v", err)
	}
	fmt.Printf("wrote synthetic dataset: %d records, %d bytes\n", n, datasetSize)

	kb, err := keybuffer.Build(records, datasetSize)
	if err != nil {
		log.Fatalf("quickstart: build key buffer: %v", err)
	}

	drafters, err := model.Drafters([]string{"step", "band_greedy", "band_equal"})
	if err != nil {
		log.Fatalf("quickstart: %v", err)
	}
	prof := profile.NewAffineProfile(100*time.Microsecond, 500)

	plan, err := optimizer.Plan(kb, drafters, prof, optimizer.Options{
		Mode:           optimizer.ModeAdaptive,
		TopKCandidates: 3,
		PageSizes:      optimizer.BuildPalette(256, 4096, 2.0),
		RecordSize:     12,
		Dtype:          common.DtypeUint64,
	})
	if err != nil {
		log.Fatalf("quickstart: plan: %v", err)
	}
	fmt.Printf("planner chose %d layer(s), root_raw=%v, predicted cost=%v\n", len(plan.Layers), plan.RootRaw, plan.TotalCost)

	if err := index.Write(dir, plan, common.DtypeUint64, 12, datasetSize, kb.MinKey()); err != nil {
		log.Fatalf("quickstart: write index: %v", err)
	}

	ctx := context.Background()
	dataStore, err := storage.OpenFileStore(datasetPath)
	if err != nil {
		log.Fatalf("quickstart: open dataset: %v", err)
	}
	defer dataStore.Close()

	reader, err := index.Open(ctx, dir, dataStore)
	if err != nil {
		log.Fatalf("quickstart: open index: %v", err)
	}
	defer reader.Close()

	lookupKey := common.Key(n / 2 * 8)
	value, err := reader.Get(ctx, lookupKey)
	if err != nil {
		log.Fatalf("quickstart: lookup key %d: %v", lookupKey, err)
	}
	rowPosition := binary.LittleEndian.Uint64(value)
	fmt.Printf("looked up key %d -> row position %d (depth=%d reads beyond the cached root)\n", lookupKey, rowPosition, reader.Depth())
}
