// Package dataset loads SOSD-style sorted integer key arrays and turns them
// into the key/value record blobs pkg/keybuffer, pkg/index and
// pkg/btreeindex read (a "collaborator" package, out of core scope per
// spec.md §1). SOSD's own benchmark files are a flat binary array: an
// 8-byte little-endian record count, followed by that many fixed-width
// keys in sorted order, with no associated values — so the value this
// loader attaches to each key is its row position in that array (the
// conventional SOSD usage: the index maps a key back to "which row did
// this come from").
package dataset

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"airindex/pkg/common"
	"airindex/pkg/storage"
)

// LoadSOSDKeys reads an SOSD binary file: an 8-byte LE count header
// followed by count keys of the given dtype's width.
func LoadSOSDKeys(path string, dtype common.Dtype) ([]common.Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &common.IoError{Op: "dataset.LoadSOSDKeys", Reason: "open", Err: err}
	}
	defer f.Close()

	var countBuf [8]byte
	if _, err := io.ReadFull(f, countBuf[:]); err != nil {
		return nil, &common.IoError{Op: "dataset.LoadSOSDKeys", Reason: "read count header", Err: err}
	}
	count := binary.LittleEndian.Uint64(countBuf[:])

	width := dtype.Width()
	keys := make([]common.Key, count)
	buf := make([]byte, width)
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, &common.IoError{Op: "dataset.LoadSOSDKeys", Reason: fmt.Sprintf("read key %d", i), Err: err}
		}
		if dtype == common.DtypeUint32 {
			keys[i] = common.Key(binary.LittleEndian.Uint32(buf))
		} else {
			keys[i] = binary.LittleEndian.Uint64(buf)
		}
	}
	return keys, nil
}

// BuildRecords attaches each key its row position (as an 8-byte
// little-endian value) so the loaded keys can feed keybuffer.Build the way
// any other (key, value) source would.
func BuildRecords(keys []common.Key) []common.Record {
	records := make([]common.Record, len(keys))
	for i, k := range keys {
		val := make([]byte, 8)
		binary.LittleEndian.PutUint64(val, uint64(i))
		records[i] = common.Record{Key: k, Value: val}
	}
	return records
}

// WriteDatasetFile writes records to path in the (key, 4-byte LE value
// length, value) layout pkg/index.scanRecords and pkg/btreeindex.decodeRecord
// both read, returning the file's total byte length for the caller's
// KeyBuffer closing entry.
func WriteDatasetFile(path string, records []common.Record, dtype common.Dtype) (int64, error) {
	store, err := storage.CreateFileStore(path)
	if err != nil {
		return 0, &common.IoError{Op: "dataset.WriteDatasetFile", Reason: "create", Err: err}
	}
	defer store.Close()

	ctx := context.Background()
	width := dtype.Width()
	for _, rec := range records {
		buf := make([]byte, width+4+len(rec.Value))
		if dtype == common.DtypeUint32 {
			binary.LittleEndian.PutUint32(buf[0:width], uint32(rec.Key))
		} else {
			binary.LittleEndian.PutUint64(buf[0:width], rec.Key)
		}
		binary.LittleEndian.PutUint32(buf[width:width+4], uint32(len(rec.Value)))
		copy(buf[width+4:], rec.Value)
		if _, err := store.WriteAt(ctx, buf); err != nil {
			return 0, &common.IoError{Op: "dataset.WriteDatasetFile", Reason: "write record", Err: err}
		}
	}
	return store.Size(ctx)
}
