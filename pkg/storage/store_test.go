package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreReadWriteRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")

	w, err := CreateFileStore(path)
	if err != nil {
		t.Fatalf("CreateFileStore: %v", err)
	}
	offset, err := w.WriteAt(ctx, []byte("hello world"))
	if err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if offset != 0 {
		t.Errorf("offset = %d, want 0", offset)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore: %v", err)
	}
	defer r.Close()

	size, err := r.Size(ctx)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 11 {
		t.Errorf("size = %d, want 11", size)
	}

	got, err := r.ReadAt(ctx, 0, 5)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("ReadAt = %q, want %q", got, "hello")
	}
}

func TestMemStoreReadPastEndErrors(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	if _, err := s.WriteAt(ctx, []byte("abc")); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if _, err := s.ReadAt(ctx, 10, 4); err == nil {
		t.Fatal("expected ErrOutOfRange for a read past the end")
	}
	got, err := s.ReadAt(ctx, 1, 10)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != "bc" {
		t.Errorf("ReadAt clamped = %q, want %q", got, "bc")
	}
}

func TestOpenDispatchesByScheme(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.bin")
	w, err := CreateFileStore(path)
	if err != nil {
		t.Fatalf("CreateFileStore: %v", err)
	}
	if _, err := w.WriteAt(ctx, []byte("xyz")); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	w.Close()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open(bare path): %v", err)
	}
	store.Close()

	store, err = Open(ctx, "file://"+path)
	if err != nil {
		t.Fatalf("Open(file://): %v", err)
	}
	store.Close()

	if _, err := Open(ctx, ""); err == nil {
		t.Fatal("expected error for an empty URL")
	}
}

func TestExperimentLogRecordAndRecent(t *testing.T) {
	dir := t.TempDir()
	log, err := OpenExperimentLog(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatalf("OpenExperimentLog: %v", err)
	}
	defer log.Close()

	rec := RunRecord{
		RunID:        "run-1",
		StartedAt:    time.Now(),
		Dataset:      "dataset.bin",
		Drafters:     "step,band_greedy",
		IndexBuilder: "enb",
		NumLayers:    2,
		BuildMs:      123,
	}
	if err := log.Record(rec); err != nil {
		t.Fatalf("Record: %v", err)
	}

	recent, err := log.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("len(recent) = %d, want 1", len(recent))
	}
	if recent[0].RunID != "run-1" || recent[0].IndexBuilder != "enb" {
		t.Errorf("recent[0] = %+v, want RunID=run-1 IndexBuilder=enb", recent[0])
	}
}
