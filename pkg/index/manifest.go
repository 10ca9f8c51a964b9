// Package index ties a planned stack of layers (pkg/optimizer) to
// persisted storage and serves point lookups against it (§4.5): the
// Writer commits layer blobs then a manifest, the Reader walks the
// manifest top-down, touching at most `depth` extra extents beyond the
// cached root.
package index

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"

	"airindex/pkg/common"
)

// manifestMagic marks a well-formed manifest footer, the way the
// teacher's sstable.MagicNumber marks a well-formed SSTable footer.
const manifestMagic = 0x41495258 // "AIRX"

// LayerMeta describes one persisted layer: which drafter built it, its
// page size, whether its pieces are linear, and its blob's byte range
// within the manifest's layers file.
type LayerMeta struct {
	LayerIndex int    `json:"layer_index"`
	DrafterID  string `json:"drafter_id"`
	PageSize   int    `json:"page_size"`
	IsLinear   bool   `json:"is_linear"`
	NumPages   int    `json:"num_pages"`
	BlobOffset uint64 `json:"blob_offset"`
	BlobLength uint64 `json:"blob_length"`
}

// Manifest is the small root object an IndexReader keeps cached in memory
// for the lifetime of the index (§4.5 "the root is read once and cached").
// It is loaded with one whole-file read; its size grows with the number of
// layers and with RootPageFirstKeys, since the planner does not limit the
// top layer to a single page.
type Manifest struct {
	Dtype         common.Dtype  `json:"dtype"`
	RecordSize    int           `json:"record_size"`
	RootRaw       bool          `json:"root_raw"`
	Layers        []LayerMeta   `json:"layers"` // ordered layer 1 (closest to data) .. layer N (closest to root)
	DatasetSize   int64         `json:"dataset_size"`
	DatasetMinKey common.Key    `json:"dataset_min_key"`
	// RootPageFirstKeys holds the topmost layer's per-page first key, so a
	// root spanning more than one page can be binary-searched in memory
	// without an index above it (§4.4's recursion bottoms out here).
	RootPageFirstKeys []common.Key `json:"root_page_first_keys"`
}

// Depth is how many extra storage reads a lookup costs beyond the cached
// manifest/root: one per stacked layer.
func (m *Manifest) Depth() int {
	return len(m.Layers)
}

// EncodeManifest serializes the manifest as length-prefixed JSON plus a
// CRC32 + magic footer, mirroring the teacher's WAL per-record checksum
// framing applied here to a single whole-manifest record instead of many
// small ones.
func EncodeManifest(m *Manifest) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("index: encode manifest: %w", err)
	}
	checksum := crc32.ChecksumIEEE(body)

	var buf bytes.Buffer
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	buf.Write(lenBuf[:])
	buf.Write(body)
	var footer [8]byte
	binary.LittleEndian.PutUint32(footer[0:4], checksum)
	binary.LittleEndian.PutUint32(footer[4:8], manifestMagic)
	buf.Write(footer[:])
	return buf.Bytes(), nil
}

// DecodeManifest parses and validates a manifest produced by
// EncodeManifest, rejecting truncated or corrupted input the same way the
// teacher's WALIterator rejects a CRC mismatch.
func DecodeManifest(raw []byte) (*Manifest, error) {
	if len(raw) < 4+8 {
		return nil, fmt.Errorf("index: manifest too small (%d bytes)", len(raw))
	}
	bodyLen := binary.LittleEndian.Uint32(raw[0:4])
	if uint64(4+bodyLen+8) > uint64(len(raw)) {
		return nil, fmt.Errorf("index: manifest length field out of range")
	}
	body := raw[4 : 4+bodyLen]
	footer := raw[4+bodyLen : 4+bodyLen+8]
	checksum := binary.LittleEndian.Uint32(footer[0:4])
	magic := binary.LittleEndian.Uint32(footer[4:8])
	if magic != manifestMagic {
		return nil, fmt.Errorf("index: invalid manifest magic")
	}
	if crc32.ChecksumIEEE(body) != checksum {
		return nil, fmt.Errorf("index: manifest checksum mismatch")
	}

	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("index: decode manifest: %w", err)
	}
	return &m, nil
}
