package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// HTTPStore serves byte ranges from a remote object via HTTP Range
// requests — the "high-latency external storage" the whole cost model is
// written for (§1). One GET per ReadAt, no connection reuse assumptions
// beyond what http.Client already pools.
type HTTPStore struct {
	client *http.Client
	url    string
	size   int64
}

// OpenHTTPStore issues a HEAD request to learn the object's size, then
// serves ReadAt via single-range GETs.
func OpenHTTPStore(ctx context.Context, url string) (*HTTPStore, error) {
	client := &http.Client{}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http store: HEAD %s: status %s", url, resp.Status)
	}
	return &HTTPStore{client: client, url: url, size: resp.ContentLength}, nil
}

func (s *HTTPStore) ReadAt(ctx context.Context, offset uint64, length uint32) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	last := offset + uint64(length) - 1
	req.Header.Set("Range", "bytes="+strconv.FormatUint(offset, 10)+"-"+strconv.FormatUint(last, 10))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http store: GET %s: status %s", s.url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (s *HTTPStore) Size(_ context.Context) (int64, error) {
	return s.size, nil
}

func (s *HTTPStore) Close() error { return nil }
