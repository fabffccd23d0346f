package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// CorpusConfig describes where the raw corpus comes from and how to extract
// documents from it.
type CorpusConfig struct {
	Type      string `json:"type"` // "files", "csv" or "sqlite"
	Path      string `json:"path"`
	FileExt   string `json:"file_ext"`   // files: extension filter
	CSVColumn string `json:"csv_column"` // csv: column holding the documents
	CSVComma  string `json:"csv_comma"`  // csv: field delimiter, "" keeps ','
	Query     string `json:"query"`      // sqlite: single-column select
}

// TrainingConfig holds the order range and the execution mode settings.
type TrainingConfig struct {
	OrderMin    int      `json:"order_min"`
	OrderMax    int      `json:"order_max"`
	Mode        string   `json:"mode"` // "sequential", "parallel" or "distributed"
	Workers     int      `json:"workers"`
	ShardSize   int      `json:"shard_size"`
	WorkerAddrs []string `json:"worker_addrs"` // distributed: worker base URLs
}

// Config is the top-level configuration struct for the trainer.
type Config struct {
	Name     string          `json:"project_name"`
	LogLevel string          `json:"log_level"`
	DataDir  string          `json:"data_dir"`
	Corpus   *CorpusConfig   `json:"corpus_config"`
	Training *TrainingConfig `json:"training_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Name:     "default",
		LogLevel: "info",
		DataDir:  "./data",
		Corpus: &CorpusConfig{
			Type:    "files",
			Path:    "./corpus",
			FileExt: ".txt",
		},
		Training: &TrainingConfig{
			OrderMin:  2,
			OrderMax:  3,
			Mode:      "parallel",
			Workers:   0, // 0 sizes the pool to the available CPUs
			ShardSize: 64,
		},
	}
}

func loadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, create it with defaults
			data, _ := json.MarshalIndent(config, "", "  ")
			_ = atomic.WriteFile(path, bytes.NewReader(data))
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// validate rejects configurations that cannot produce a training run.
func (c *Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("project_name must not be empty")
	}
	if c.Corpus == nil || c.Training == nil {
		return fmt.Errorf("corpus_config and training_config are required")
	}
	if c.Training.OrderMin < 1 || c.Training.OrderMax < c.Training.OrderMin {
		return fmt.Errorf("invalid order range [%d,%d]", c.Training.OrderMin, c.Training.OrderMax)
	}
	switch c.Corpus.Type {
	case "files", "csv", "sqlite":
	default:
		return fmt.Errorf("unknown corpus type %q", c.Corpus.Type)
	}
	switch c.Training.Mode {
	case "sequential", "parallel":
	case "distributed":
		if len(c.Training.WorkerAddrs) == 0 {
			return fmt.Errorf("distributed mode requires worker_addrs")
		}
	default:
		return fmt.Errorf("unknown execution mode %q", c.Training.Mode)
	}
	return nil
}
