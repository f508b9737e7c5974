package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the bookstore configuration file.
type Config struct {
	Addr      string          `yaml:"addr"`
	BaseURL   string          `yaml:"base_url"`
	SchemaDir string          `yaml:"schema_dir"`
	Fixtures  bool            `yaml:"fixtures"`
	LogLevel  string          `yaml:"log_level"`
	BodyLimit int64           `yaml:"body_limit"`
	Timeout   time.Duration   `yaml:"timeout"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	// ClientIDs lists the resource types that accept client-generated ids.
	ClientIDs []string `yaml:"client_ids"`
}

// RateLimitConfig configures per-client rate limiting. Zero disables it.
type RateLimitConfig struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// CORSConfig configures cross-origin access. No origins disables it.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
	MaxAge  int      `yaml:"max_age"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

func defaultConfig() Config {
	return Config{
		Addr:      ":8080",
		BaseURL:   "/v1",
		SchemaDir: "schemas",
		Fixtures:  true,
		LogLevel:  "info",
		BodyLimit: 1 << 20, // 1 MB
		Timeout:   10 * time.Second,
		Metrics: MetricsConfig{
			Path:      "/metrics",
			Namespace: "bookstore",
		},
		ClientIDs: []string{"stores"},
	}
}

// loadConfig reads path over the defaults. A missing file leaves the
// defaults in place. A relative schema_dir is resolved against the
// directory of the file.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.SchemaDir != "" && !filepath.IsAbs(cfg.SchemaDir) {
		cfg.SchemaDir = filepath.Join(filepath.Dir(path), cfg.SchemaDir)
	}
	return cfg, nil
}
