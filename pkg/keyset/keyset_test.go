package keyset

import (
	"path/filepath"
	"testing"

	"airindex/pkg/common"
)

func TestSampleUniformWithinRange(t *testing.T) {
	keys := SampleUniform(100, 200, 5000)
	if len(keys) != 5000 {
		t.Fatalf("len = %d, want 5000", len(keys))
	}
	for _, k := range keys {
		if k < 100 || k > 200 {
			t.Fatalf("key %d out of range [100,200]", k)
		}
	}
}

func TestSampleZipfianWithinRange(t *testing.T) {
	keys, err := SampleZipfian(1000, 2000, 2000, 1.5)
	if err != nil {
		t.Fatalf("SampleZipfian: %v", err)
	}
	if len(keys) != 2000 {
		t.Fatalf("len = %d, want 2000", len(keys))
	}
	for _, k := range keys {
		if k < 1000 || k > 2000 {
			t.Fatalf("key %d out of range [1000,2000]", k)
		}
	}
}

func TestSampleZipfianRejectsBadTheta(t *testing.T) {
	if _, err := SampleZipfian(0, 100, 10, 1.0); err == nil {
		t.Fatal("expected error for theta == 1.0 (invalid for math/rand.Zipf)")
	}
}

func TestWriteReadPackedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys.bin")
	want := []common.Key{7, 1000, 1 << 40, 0, 42}

	if err := WritePacked(path, want, common.DtypeUint64); err != nil {
		t.Fatalf("WritePacked: %v", err)
	}
	got, err := ReadPacked(path, common.DtypeUint64)
	if err != nil {
		t.Fatalf("ReadPacked: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestWriteReadPackedUint32(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keys32.bin")
	want := []common.Key{1, 2, 3, 1 << 31}

	if err := WritePacked(path, want, common.DtypeUint32); err != nil {
		t.Fatalf("WritePacked: %v", err)
	}
	got, err := ReadPacked(path, common.DtypeUint32)
	if err != nil {
		t.Fatalf("ReadPacked: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
