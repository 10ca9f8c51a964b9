package index

import (
	"fmt"
	"os"
	"path/filepath"

	"airindex/pkg/common"
	"airindex/pkg/optimizer"
)

const (
	layersFileName   = "layers.bin"
	manifestFileName = "manifest.airx"
	scratchSuffix    = ".tmp"
)

// Write persists a planned stack of layers to dir: every layer blob is
// written to a scratch file first, and only once that succeeds is the
// manifest written and the scratch file promoted to its final name — so a
// crash mid-build never leaves a directory with a manifest pointing at
// missing or partial layer bytes (§4.5 durability: "build, then commit").
func Write(dir string, plan *optimizer.Plan, dtype common.Dtype, recordSize int, datasetSize int64, datasetMinKey common.Key) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("index: mkdir %s: %w", dir, err)
	}

	layersPath := filepath.Join(dir, layersFileName)
	scratchPath := layersPath + scratchSuffix

	f, err := os.Create(scratchPath)
	if err != nil {
		return fmt.Errorf("index: create scratch layers file: %w", err)
	}

	manifest := &Manifest{
		Dtype:         dtype,
		RecordSize:    recordSize,
		RootRaw:       plan.RootRaw,
		DatasetSize:   datasetSize,
		DatasetMinKey: datasetMinKey,
	}

	var offset uint64
	for _, lp := range plan.Layers {
		if lp.Layer == nil {
			f.Close()
			os.Remove(scratchPath)
			return fmt.Errorf("index: layer %d has no materialized blob", lp.LayerIndex)
		}
		blob := lp.Layer.Blob()
		if _, err := f.Write(blob); err != nil {
			f.Close()
			os.Remove(scratchPath)
			return fmt.Errorf("index: write layer %d: %w", lp.LayerIndex, err)
		}
		manifest.Layers = append(manifest.Layers, LayerMeta{
			LayerIndex: lp.LayerIndex,
			DrafterID:  lp.Draft.DrafterID,
			PageSize:   lp.Layer.PageSize,
			IsLinear:   lp.Layer.IsLinear,
			NumPages:   lp.Layer.NumPages(),
			BlobOffset: offset,
			BlobLength: uint64(len(blob)),
		})
		offset += uint64(len(blob))
	}

	if len(plan.Layers) > 0 {
		topLayer := plan.Layers[len(plan.Layers)-1].Layer
		manifest.RootPageFirstKeys = topLayer.FirstKeys()
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(scratchPath)
		return fmt.Errorf("index: sync scratch layers file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(scratchPath)
		return fmt.Errorf("index: close scratch layers file: %w", err)
	}
	if err := os.Rename(scratchPath, layersPath); err != nil {
		return fmt.Errorf("index: promote layers file: %w", err)
	}

	encoded, err := EncodeManifest(manifest)
	if err != nil {
		return err
	}
	manifestPath := filepath.Join(dir, manifestFileName)
	manifestScratch := manifestPath + scratchSuffix
	if err := os.WriteFile(manifestScratch, encoded, 0o644); err != nil {
		return fmt.Errorf("index: write scratch manifest: %w", err)
	}
	if err := os.Rename(manifestScratch, manifestPath); err != nil {
		return fmt.Errorf("index: promote manifest: %w", err)
	}
	return nil
}
