// Package storage abstracts the high-latency external storage an index and
// its dataset live on (§1, §4.6): every access is a byte-range read, the
// thing the whole cost model and planner are built around.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrOutOfRange is returned when a read extends past the end of a store.
var ErrOutOfRange = errors.New("storage: read out of range")

// Store is the one capability every layer and the dataset need: fetch a
// byte range, and learn the total size for planning. Generalizes the
// teacher's Backend interface (key/value get/put) down to the narrower
// byte-addressed primitive AirIndex's cost model actually charges for.
type Store interface {
	ReadAt(ctx context.Context, offset uint64, length uint32) ([]byte, error)
	Size(ctx context.Context) (int64, error)
	Close() error
}

// Writer is implemented by stores that can also accept new bytes — used
// only at build time, never by the read path a query follows.
type Writer interface {
	Store
	WriteAt(ctx context.Context, data []byte) (offset uint64, err error)
}

// FileStore serves a Store/Writer from a local file, the baseline every
// other backend is benchmarked against.
type FileStore struct {
	mu   sync.Mutex
	file *os.File
	size int64
}

// OpenFileStore opens an existing file for reads only.
func OpenFileStore(path string) (*FileStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileStore{file: f, size: stat.Size()}, nil
}

// CreateFileStore creates (or truncates) a file for writing.
func CreateFileStore(path string) (*FileStore, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{file: f}, nil
}

func (s *FileStore) ReadAt(_ context.Context, offset uint64, length uint32) ([]byte, error) {
	buf := make([]byte, length)
	n, err := s.file.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func (s *FileStore) WriteAt(_ context.Context, data []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset := s.size
	n, err := s.file.WriteAt(data, offset)
	if err != nil {
		return 0, err
	}
	s.size += int64(n)
	return uint64(offset), nil
}

func (s *FileStore) Size(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size, nil
}

func (s *FileStore) Close() error {
	return s.file.Close()
}

// MemStore is an in-memory Store/Writer, used in tests.
type MemStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) ReadAt(_ context.Context, offset uint64, length uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset >= uint64(len(s.data)) {
		return nil, fmt.Errorf("%w: offset %d >= size %d", ErrOutOfRange, offset, len(s.data))
	}
	end := offset + uint64(length)
	if end > uint64(len(s.data)) {
		end = uint64(len(s.data))
	}
	out := make([]byte, end-offset)
	copy(out, s.data[offset:end])
	return out, nil
}

func (s *MemStore) WriteAt(_ context.Context, data []byte) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset := uint64(len(s.data))
	s.data = append(s.data, data...)
	return offset, nil
}

func (s *MemStore) Size(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.data)), nil
}

func (s *MemStore) Close() error { return nil }
