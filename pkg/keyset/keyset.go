// Package keyset samples query keys for a benchmark run and reads/writes
// them as the packed, headerless dtype-width files §6.3 names (a
// "collaborator" package, out of core scope per spec.md §1, built so
// cmd/sosd_keyset and --do-benchmark have something real to drive queries
// with).
package keyset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	randv2 "math/rand/v2"

	legacyrand "math/rand"

	"airindex/pkg/common"
)

// SampleUniform draws n keys uniformly (with replacement) from the closed
// range [minKey, maxKey], using math/rand/v2 the way a modern Go benchmark
// driver would draw its workload keys (the teacher's own benchmark used the
// legacy math/rand; v2 is the idiomatic choice for new code on Go 1.22+).
func SampleUniform(minKey, maxKey common.Key, n int) []common.Key {
	if maxKey < minKey {
		minKey, maxKey = maxKey, minKey
	}
	span := maxKey - minKey + 1
	out := make([]common.Key, n)
	for i := range out {
		out[i] = minKey + randv2.Uint64N(span)
	}
	return out
}

// SampleZipfian draws n keys from [minKey, maxKey] via a Zipfian
// distribution skewed toward minKey, using the stdlib math/rand.Zipf
// generator (the theta/power parameter the CLI exposes as --zipf-theta).
// Zipf is only available off the legacy math/rand.Rand, so this is the one
// place that package is used instead of math/rand/v2.
func SampleZipfian(minKey, maxKey common.Key, n int, theta float64) ([]common.Key, error) {
	if maxKey < minKey {
		minKey, maxKey = maxKey, minKey
	}
	span := maxKey - minKey
	src := legacyrand.New(legacyrand.NewSource(1))
	zipf := legacyrand.NewZipf(src, theta, 1.0, span)
	if zipf == nil {
		return nil, fmt.Errorf("keyset: invalid zipfian parameters (theta=%v)", theta)
	}
	out := make([]common.Key, n)
	for i := range out {
		out[i] = minKey + zipf.Uint64()
	}
	return out, nil
}

// WritePacked writes keys as a headerless, dtype-width packed sequence
// (§6.3 "no header"), in file order — the exact format SampleUniform's and
// SampleZipfian's callers persist for a later --keyset-url replay.
func WritePacked(path string, keys []common.Key, dtype common.Dtype) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("keyset: create %s: %w", path, err)
	}
	defer f.Close()

	width := dtype.Width()
	buf := make([]byte, width)
	for _, k := range keys {
		if dtype == common.DtypeUint32 {
			binary.LittleEndian.PutUint32(buf, uint32(k))
		} else {
			binary.LittleEndian.PutUint64(buf, k)
		}
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("keyset: write %s: %w", path, err)
		}
	}
	return nil
}

// ReadPacked reads a file written by WritePacked back into keys, in file
// (query) order.
func ReadPacked(path string, dtype common.Dtype) ([]common.Key, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("keyset: open %s: %w", path, err)
	}
	defer f.Close()

	width := dtype.Width()
	buf := make([]byte, width)
	var keys []common.Key
	for {
		_, err := io.ReadFull(f, buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("keyset: read %s: %w", path, err)
		}
		if dtype == common.DtypeUint32 {
			keys = append(keys, common.Key(binary.LittleEndian.Uint32(buf)))
		} else {
			keys = append(keys, binary.LittleEndian.Uint64(buf))
		}
	}
	return keys, nil
}
