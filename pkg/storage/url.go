package storage

import (
	"context"
	"fmt"
	"strings"
)

// Open resolves a storage URL (§6.4) to a Store: "file://" and bare paths
// go to FileStore, "mmap://" to MmapStore, "http://"/"https://" to
// HTTPStore. This is the one place a dataset or index URL flag gets turned
// into a concrete backend, so cmd/sosd_experiment never has to know which
// Store it's holding.
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return OpenHTTPStore(ctx, url)
	case strings.HasPrefix(url, "mmap://"):
		return OpenMmapStore(strings.TrimPrefix(url, "mmap://"))
	case strings.HasPrefix(url, "file://"):
		return OpenFileStore(strings.TrimPrefix(url, "file://"))
	case url == "":
		return nil, fmt.Errorf("storage: empty URL")
	default:
		return OpenFileStore(url)
	}
}
