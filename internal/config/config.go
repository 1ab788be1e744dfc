// Package config loads the optional YAML configuration file that supplies
// defaults for flags the CLI does not set explicitly.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds session defaults. CLI flags, when set, take precedence over
// the fields they cover (classification endpoint and model, backup path).
type Config struct {
	Classify ClassifyConfig `yaml:"classify"`
	Backup   BackupConfig   `yaml:"backup"`
}

// ClassifyConfig configures the classification-oracle client.
type ClassifyConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Model          string        `yaml:"model"`
	Timeout        time.Duration `yaml:"timeout"`
	TokenThreshold int           `yaml:"token_threshold"`
	BatchInterval  time.Duration `yaml:"batch_interval"`
}

// BackupConfig configures where the backup set is persisted.
type BackupConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in defaults used when no config file and no
// overriding flag is present.
func Default() *Config {
	return &Config{
		Classify: ClassifyConfig{
			Endpoint:       "http://localhost:8000/classify",
			Model:          "alf-classifier-v1",
			Timeout:        30 * time.Second,
			TokenThreshold: 4000,
			BatchInterval:  2 * time.Second,
		},
		Backup: BackupConfig{
			Path: "./backup.json",
		},
	}
}

// Load reads a YAML config file, falling back to Default for any field the
// file leaves zero-valued. An empty path is not an error: Default() alone
// is returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	mergeClassify(&cfg.Classify, &fileCfg.Classify)
	if fileCfg.Backup.Path != "" {
		cfg.Backup.Path = fileCfg.Backup.Path
	}

	return cfg, nil
}

func mergeClassify(dst, src *ClassifyConfig) {
	if src.Endpoint != "" {
		dst.Endpoint = src.Endpoint
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.Timeout != 0 {
		dst.Timeout = src.Timeout
	}
	if src.TokenThreshold != 0 {
		dst.TokenThreshold = src.TokenThreshold
	}
	if src.BatchInterval != 0 {
		dst.BatchInterval = src.BatchInterval
	}
}
