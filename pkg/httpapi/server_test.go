package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"airindex/pkg/common"
)

var errStubNotFound = errors.New("stub: not found")

type stubGetter map[common.Key][]byte

func (s stubGetter) Get(_ context.Context, key common.Key) ([]byte, error) {
	if v, ok := s[key]; ok {
		return v, nil
	}
	return nil, errStubNotFound
}

func TestHandleGetFound(t *testing.T) {
	primary := stubGetter{42: []byte("hello")}
	s := NewServer(primary, errStubNotFound, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/get?key=42", nil)
	rec := httptest.NewRecorder()
	s.handleGet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["value"] != "hello" {
		t.Errorf("value = %v, want hello", body["value"])
	}
}

func TestHandleGetNotFound(t *testing.T) {
	primary := stubGetter{}
	s := NewServer(primary, errStubNotFound, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/get?key=1", nil)
	rec := httptest.NewRecorder()
	s.handleGet(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleGetInvalidKey(t *testing.T) {
	s := NewServer(stubGetter{}, errStubNotFound, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/get?key=notanumber", nil)
	rec := httptest.NewRecorder()
	s.handleGet(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleInspect(t *testing.T) {
	s := NewServer(stubGetter{}, errStubNotFound, func() int { return 3 }, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/inspect", nil)
	rec := httptest.NewRecorder()
	s.handleInspect(rec, req)

	var body map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["depth"] != float64(3) {
		t.Errorf("depth = %v, want 3", body["depth"])
	}
}

func TestHandleBenchmarkComparesBaseline(t *testing.T) {
	primary := stubGetter{1: []byte("a"), 2: []byte("b")}
	baseline := stubGetter{1: []byte("a"), 2: []byte("b")}
	s := NewServer(primary, errStubNotFound, nil, baseline, []common.Key{1, 2})

	req := httptest.NewRequest(http.MethodGet, "/api/benchmark?iterations=100", nil)
	rec := httptest.NewRecorder()
	s.handleBenchmark(rec, req)

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["baseline_ns"]; !ok {
		t.Errorf("expected baseline_ns in response, got %v", body)
	}
}
