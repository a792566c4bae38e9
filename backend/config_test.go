package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/bolt/v3"
)

func TestDefaultConfigIsUsable(t *testing.T) {
	config := DefaultConfig()
	if config.ListenAddr == "" {
		t.Fatalf("expected a listen address")
	}
	if config.DefaultAlgorithm != AlgorithmAStar || config.DefaultHeuristic != HeuristicIndex {
		t.Fatalf("expected astar/index defaults, got %q/%q", config.DefaultAlgorithm, config.DefaultHeuristic)
	}
	if config.CacheSize <= 0 || config.CacheBuckets <= 0 {
		t.Fatalf("expected a non-empty cache layout")
	}
	if config.JobWorkers < 1 || config.JobQueueLimit < 1 {
		t.Fatalf("expected a workable job queue")
	}
	if config.BenchMaxIterations < 1 {
		t.Fatalf("expected a bench iteration cap")
	}
}

func TestLoadConfigFileMissingKeepsDefaults(t *testing.T) {
	config, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must not be an error, got %v", err)
	}
	if config != DefaultConfig() {
		t.Fatalf("expected pristine defaults, got %+v", config)
	}
}

func TestLoadConfigFileOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listen_addr: \":9999\"\ndefault_algorithm: \"bfs\"\njob_workers: 3\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if config.ListenAddr != ":9999" {
		t.Fatalf("expected overlayed listen address, got %q", config.ListenAddr)
	}
	if config.DefaultAlgorithm != AlgorithmBreadthFirst {
		t.Fatalf("expected overlayed algorithm, got %q", config.DefaultAlgorithm)
	}
	if config.JobWorkers != 3 {
		t.Fatalf("expected overlayed worker count, got %d", config.JobWorkers)
	}
	// Untouched keys keep their defaults.
	if config.DefaultHeuristic != HeuristicIndex {
		t.Fatalf("expected default heuristic to survive, got %q", config.DefaultHeuristic)
	}
	if config.CacheSize != DefaultConfig().CacheSize {
		t.Fatalf("expected default cache size to survive, got %d", config.CacheSize)
	}
}

func TestLoadConfigFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatalf("expected malformed yaml to be rejected")
	}
}

func TestConfigStoreUpdateIsVisible(t *testing.T) {
	store := &ConfigStore{config: DefaultConfig()}
	config := store.Get()
	config.JobWorkers = 7
	store.Update(config)
	if got := store.Get().JobWorkers; got != 7 {
		t.Fatalf("expected updated worker count, got %d", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	if got := parseLogLevel("debug"); got != bolt.DEBUG {
		t.Fatalf("expected debug level, got %v", got)
	}
	if got := parseLogLevel("nonsense"); got != bolt.INFO {
		t.Fatalf("expected fallback to info, got %v", got)
	}
}
