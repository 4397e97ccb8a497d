// Package config provides configuration loading and structs for the
// torikomi server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Notify    NotifyConfig    `yaml:"notify"`
	Query     QueryConfig     `yaml:"query"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the document store, execution log, and
// keyword index.
type StorageConfig struct {
	DocumentDBPath string `yaml:"document_db_path"`
	ExecLogDBPath  string `yaml:"exec_log_db_path"`
	KeywordPath    string `yaml:"keyword_index_path"`
}

// EmbeddingConfig holds embedder settings. Dimensions is the
// deployment-wide embedding dimension enforced by the document store.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// PipelineConfig holds step runner settings.
type PipelineConfig struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	BackoffSeconds float64 `yaml:"backoff_seconds"`
	TimeoutSeconds float64 `yaml:"step_timeout_seconds"`
	ChunkMaxWords  int     `yaml:"chunk_max_words"`
}

// NotifyConfig holds notification delivery settings. Empty webhook URLs
// leave the corresponding channel in-process.
type NotifyConfig struct {
	Retries           int     `yaml:"retries"`
	BackoffSeconds    float64 `yaml:"backoff_seconds"`
	GeneralWebhookURL string  `yaml:"general_webhook_url"`
	SuccessWebhookURL string  `yaml:"success_webhook_url"`
	ErrorWebhookURL   string  `yaml:"error_webhook_url"`
}

// QueryConfig holds similarity/keyword query limits.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true
// when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies
// defaults. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DocumentDBPath = expandPath(cfg.Storage.DocumentDBPath, configDir)
	cfg.Storage.ExecLogDBPath = expandPath(cfg.Storage.ExecLogDBPath, configDir)
	cfg.Storage.KeywordPath = expandPath(cfg.Storage.KeywordPath, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
