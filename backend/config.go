package main

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr string `json:"listen_addr" yaml:"listen_addr"`
	LogLevel   string `json:"log_level" yaml:"log_level"`
	LogFormat  string `json:"log_format" yaml:"log_format"`

	DefaultAlgorithm string `json:"default_algorithm" yaml:"default_algorithm"`
	DefaultHeuristic string `json:"default_heuristic" yaml:"default_heuristic"`

	// ProgressEvery spaces progress snapshots in expansions; zero disables
	// the hook entirely. ProgressThrottleMs is the publisher-side floor
	// between pushes so a fast search cannot flood the hub.
	ProgressEvery      int64 `json:"progress_every" yaml:"progress_every"`
	ProgressThrottleMs int   `json:"progress_throttle_ms" yaml:"progress_throttle_ms"`

	JobWorkers    int `json:"job_workers" yaml:"job_workers"`
	JobQueueLimit int `json:"job_queue_limit" yaml:"job_queue_limit"`

	CacheSize    int `json:"cache_size" yaml:"cache_size"`
	CacheBuckets int `json:"cache_buckets" yaml:"cache_buckets"`

	BenchMaxIterations int `json:"bench_max_iterations" yaml:"bench_max_iterations"`
}

type ConfigStore struct {
	mu     sync.RWMutex
	config Config
}

func DefaultConfig() Config {
	return Config{
		ListenAddr: ":8080",
		LogLevel:   "info",
		LogFormat:  "console",

		DefaultAlgorithm: AlgorithmAStar,
		DefaultHeuristic: HeuristicIndex,

		ProgressEvery:      500,
		ProgressThrottleMs: 50,

		JobWorkers:    1,
		JobQueueLimit: 64,

		CacheSize:    1 << 12, // 4096 slots per way
		CacheBuckets: 4,

		BenchMaxIterations: 10000,
	}
}

var configStore = &ConfigStore{config: DefaultConfig()}

func GetConfig() Config {
	return configStore.Get()
}

func (c *ConfigStore) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *ConfigStore) Update(newConfig Config) {
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
}

// LoadConfigFile overlays the YAML file at path onto the defaults. A missing
// file is not an error; the defaults stand.
func LoadConfigFile(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}
