// Package config loads the query-serving daemon's (cmd/server) YAML-backed
// configuration, the
// same Load(path)-with-defaults shape as the teacher's config.go, adapted
// from a KV server's listener/storage/shard settings to an experiment run's
// server, storage-profile, and planner settings (SPEC_FULL §2, ambient).
package config

import (
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
	System  SystemConfig  `yaml:"system"`
}

// ServerConfig configures the query-serving daemon (pkg/queryserver,
// pkg/httpapi), the direct continuation of the teacher's ServerConfig.
type ServerConfig struct {
	TCPAddr  string `yaml:"tcp_addr"`  // pkg/queryserver listen address
	HTTPAddr string `yaml:"http_addr"` // pkg/httpapi listen address
}

// StorageConfig names the dataset and the affine cost model charged against
// it (pkg/profile), replacing the teacher's WAL/memtable tuning knobs with
// the numbers this index's cost model actually consumes.
type StorageConfig struct {
	DatasetPath   string  `yaml:"dataset_path"`
	IndexPath     string  `yaml:"index_path"`
	LatencyMicros float64 `yaml:"latency_micros"`
	BandwidthMBps float64 `yaml:"bandwidth_mbps"`
}

// IndexConfig configures the planner and layer builder (pkg/optimizer,
// pkg/layer).
type IndexConfig struct {
	Mode           string `yaml:"mode"` // "enb" or "enb_layers"
	TargetLayers   int    `yaml:"target_layers"`
	TopKCandidates int    `yaml:"top_k_candidates"`
	PageSize       int    `yaml:"page_size"`
	Dtype          string `yaml:"dtype"` // "uint32" or "uint64"
	Drafters       []string `yaml:"drafters"`
}

// SystemConfig holds the worker pool size (§5), the direct continuation of
// the teacher's SystemConfig.ShardCount. It is loaded and defaulted here
// only; the planner does not read it and starts one goroutine per fit
// candidate.
type SystemConfig struct {
	NumWorkers int `yaml:"num_workers"`
}

// Load reads configPath, falling back to "configs/airindex.yaml" then
// "airindex.yaml" in the working directory when configPath is empty, same
// search order as the teacher's Load. An explicit configPath that can't be
// read is an error; an empty one that finds nothing just returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := defaultConfig()

	if configPath == "" {
		for _, p := range []string{"configs/airindex.yaml", "airindex.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				applyDefaults(cfg)
				return cfg, nil
			}
		}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			TCPAddr:  ":9090",
			HTTPAddr: ":8080",
		},
		Storage: StorageConfig{
			DatasetPath:   "dataset.bin",
			IndexPath:     "index_out",
			LatencyMicros: 100,
			BandwidthMBps: 500,
		},
		Index: IndexConfig{
			Mode:           "enb",
			TopKCandidates: 5,
			PageSize:       4096,
			Dtype:          "uint64",
			Drafters:       []string{"step", "band_greedy", "band_equal"},
		},
		System: SystemConfig{
			NumWorkers: runtime.NumCPU(),
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.BandwidthMBps <= 0 {
		cfg.Storage.BandwidthMBps = 500
	}
	if cfg.Index.TopKCandidates <= 0 {
		cfg.Index.TopKCandidates = 5
	}
	if cfg.Index.PageSize <= 0 {
		cfg.Index.PageSize = 4096
	}
	if cfg.Index.Mode == "" {
		cfg.Index.Mode = "enb"
	}
	if len(cfg.Index.Drafters) == 0 {
		cfg.Index.Drafters = []string{"step", "band_greedy", "band_equal"}
	}
	if cfg.System.NumWorkers <= 0 {
		cfg.System.NumWorkers = runtime.NumCPU()
	}
}
