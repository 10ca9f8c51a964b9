package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	_, err := Load("/nonexistent/path/airindex.yaml")
	if err == nil {
		t.Fatal("expected error for nonexistent path")
	}

	cfg, _ := Load("")
	if cfg.Server.TCPAddr != ":9090" {
		t.Errorf("default tcp_addr: got %s", cfg.Server.TCPAddr)
	}
	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("default http_addr: got %s", cfg.Server.HTTPAddr)
	}
	if cfg.Index.Mode != "enb" {
		t.Errorf("default mode: got %s", cfg.Index.Mode)
	}
	if cfg.Index.PageSize != 4096 {
		t.Errorf("default page_size: got %d", cfg.Index.PageSize)
	}
	if cfg.System.NumWorkers <= 0 {
		t.Errorf("default num_workers: got %d", cfg.System.NumWorkers)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	content := `
server:
  tcp_addr: ":9191"
  http_addr: ":8181"
storage:
  dataset_path: "sosd/books_200M_uint64"
  bandwidth_mbps: 1200
index:
  mode: "enb_layers"
  target_layers: 2
  page_size: 8192
  dtype: "uint32"
system:
  num_workers: 4
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.TCPAddr != ":9191" {
		t.Errorf("tcp_addr: got %s", cfg.Server.TCPAddr)
	}
	if cfg.Index.Mode != "enb_layers" {
		t.Errorf("mode: got %s", cfg.Index.Mode)
	}
	if cfg.Index.TargetLayers != 2 {
		t.Errorf("target_layers: got %d", cfg.Index.TargetLayers)
	}
	if cfg.Index.PageSize != 8192 {
		t.Errorf("page_size: got %d", cfg.Index.PageSize)
	}
	if cfg.System.NumWorkers != 4 {
		t.Errorf("num_workers: got %d", cfg.System.NumWorkers)
	}
}
