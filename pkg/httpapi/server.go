// Package httpapi is the JSON HTTP control surface for a built index:
// lookup, manifest inspection, and a btree-vs-learned benchmark endpoint,
// generalized from the teacher's api.Server (handleGet/handlePut/
// handleBenchmark against a mutable core.HybridStore) down to the built,
// read-only Index this spec serves (SPEC_FULL §6.1 --do-inspect,
// --do-benchmark).
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"airindex/pkg/common"
)

// Getter is satisfied by pkg/index.Reader and pkg/btreeindex.Reader, same
// as pkg/queryserver.Getter.
type Getter interface {
	Get(ctx context.Context, key common.Key) ([]byte, error)
}

// Server serves /api/get, /api/inspect and /api/benchmark over primary
// (the index under test) and, when set, baseline (the B-tree comparison
// point the teacher's handleBenchmark compared "Binary Search" against).
type Server struct {
	primary    Getter
	baseline   Getter // may be nil: /api/benchmark then reports primary only
	notFound   error
	depth      func() int      // optional: backs /api/inspect
	sampleKeys []common.Key     // candidate keys /api/benchmark draws from
}

func NewServer(primary Getter, notFound error, depth func() int, baseline Getter, sampleKeys []common.Key) *Server {
	return &Server{primary: primary, notFound: notFound, depth: depth, baseline: baseline, sampleKeys: sampleKeys}
}

// Start registers handlers on a dedicated mux (the teacher used the global
// http.DefaultServeMux; a private one avoids surprising a process that
// embeds this server alongside other HTTP handlers) and serves addr.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/get", s.handleGet)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/benchmark", s.handleBenchmark)

	log.Printf("[httpapi] listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	keyStr := r.URL.Query().Get("key")
	key, err := strconv.ParseUint(keyStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid key", http.StatusBadRequest)
		return
	}

	start := time.Now()
	val, err := s.primary.Get(r.Context(), common.Key(key))
	elapsed := time.Since(start)

	if err != nil {
		if s.notFound != nil && errors.Is(err, s.notFound) {
			http.Error(w, "key not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"key":        key,
		"value":      string(val),
		"found":      true,
		"latency_ns": elapsed.Nanoseconds(),
	})
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	if s.depth == nil {
		json.NewEncoder(w).Encode(map[string]string{"error": "inspect unavailable for this backend"})
		return
	}
	json.NewEncoder(w).Encode(map[string]interface{}{"depth": s.depth()})
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	iterations := 10000
	if v := r.URL.Query().Get("iterations"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			iterations = n
		}
	}
	if len(s.sampleKeys) == 0 {
		json.NewEncoder(w).Encode(map[string]string{"error": "no sample keys configured"})
		return
	}

	primaryNs := timeGetter(r.Context(), s.primary, s.sampleKeys, iterations)
	result := map[string]interface{}{
		"iterations":   iterations,
		"primary_ns":   primaryNs,
	}
	if s.baseline != nil {
		baselineNs := timeGetter(r.Context(), s.baseline, s.sampleKeys, iterations)
		result["baseline_ns"] = baselineNs
		result["speedup"] = baselineNs / primaryNs
	}
	json.NewEncoder(w).Encode(result)
}

func timeGetter(ctx context.Context, g Getter, keys []common.Key, iterations int) float64 {
	start := time.Now()
	for i := 0; i < iterations; i++ {
		k := keys[rand.Intn(len(keys))]
		g.Get(ctx, k)
	}
	elapsed := time.Since(start)
	return float64(elapsed.Nanoseconds()) / float64(iterations)
}
