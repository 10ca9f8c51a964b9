package btreeindex

import (
	"context"
	"encoding/binary"
	"path/filepath"
	"testing"

	"airindex/pkg/common"
	"airindex/pkg/keybuffer"
	"airindex/pkg/storage"
)

func TestBuildOpenGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	n := 2000

	records := make([]common.Record, n)
	for i := 0; i < n; i++ {
		records[i] = common.Record{Key: common.Key(i * 3), Value: []byte(valueFor(i))}
	}

	datasetPath := filepath.Join(dir, "dataset.bin")
	writer, err := storage.CreateFileStore(datasetPath)
	if err != nil {
		t.Fatalf("CreateFileStore: %v", err)
	}
	ctx := context.Background()
	for _, rec := range records {
		buf := make([]byte, 8+4+len(rec.Value))
		binary.LittleEndian.PutUint64(buf[0:8], uint64(rec.Key))
		binary.LittleEndian.PutUint32(buf[8:12], uint32(len(rec.Value)))
		copy(buf[12:], rec.Value)
		if _, err := writer.WriteAt(ctx, buf); err != nil {
			t.Fatalf("WriteAt: %v", err)
		}
	}
	datasetSize, err := writer.Size(ctx)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close writer: %v", err)
	}

	kb, err := keybuffer.Build(records, datasetSize)
	if err != nil {
		t.Fatalf("keybuffer.Build: %v", err)
	}

	idx := Build(kb, DefaultDegree)
	if idx.Len() != n {
		t.Fatalf("Len() = %d, want %d", idx.Len(), n)
	}

	dataStore, err := storage.OpenFileStore(datasetPath)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	defer dataStore.Close()

	reader := Open(idx, dataStore, common.DtypeUint64)
	for _, i := range []int{0, 1, n / 2, n - 1} {
		val, err := reader.Get(ctx, records[i].Key)
		if err != nil {
			t.Fatalf("Get(%d): %v", records[i].Key, err)
		}
		if string(val) != string(records[i].Value) {
			t.Errorf("Get(%d) = %q, want %q", records[i].Key, val, records[i].Value)
		}
	}

	if _, err := reader.Get(ctx, records[n-1].Key+1); err != ErrNotFound {
		t.Errorf("Get(missing key) = %v, want ErrNotFound", err)
	}
	if _, err := reader.Get(ctx, 1); err != ErrNotFound {
		t.Errorf("Get(non-multiple-of-3 key) = %v, want ErrNotFound", err)
	}
}

func valueFor(i int) string {
	return "value-" + itoa(i)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
