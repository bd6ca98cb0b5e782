// Package config loads server configuration from the environment, with an
// optional .env file for development setups.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults applied when the environment leaves a knob unset.
const (
	DefaultAddr     = ":8080"
	DefaultDataRoot = "./data"
)

// Config is the resolved server configuration.
type Config struct {
	// Addr is the listen address, host:port.
	Addr string
	// DataRoot holds the catalog database and per-pipeline vector
	// directories.
	DataRoot string
	// TEIEmbedURL is the optional local text-embeddings-inference endpoint
	// serving the named local encoders.
	TEIEmbedURL string
	// TEIRerankURL is the optional local reranker endpoint.
	TEIRerankURL string
	// LogLevel is one of debug, info, warn, error.
	LogLevel slog.Level
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is fine; explicit env always wins.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:         getenv("RAGPIPE_ADDR", DefaultAddr),
		DataRoot:     getenv("RAGPIPE_DATA_ROOT", DefaultDataRoot),
		TEIEmbedURL:  os.Getenv("RAGPIPE_TEI_EMBED_URL"),
		TEIRerankURL: os.Getenv("RAGPIPE_TEI_RERANK_URL"),
		LogLevel:     slog.LevelInfo,
	}

	if raw := os.Getenv("RAGPIPE_LOG_LEVEL"); raw != "" {
		level, err := parseLevel(raw)
		if err != nil {
			return nil, err
		}
		cfg.LogLevel = level
	}

	if !strings.Contains(cfg.Addr, ":") {
		return nil, fmt.Errorf("invalid RAGPIPE_ADDR %q: want host:port", cfg.Addr)
	}

	return cfg, nil
}

// EnsureDataRoot creates the data root if needed and probes that it is
// writable.
func (c *Config) EnsureDataRoot() error {
	if err := os.MkdirAll(c.DataRoot, 0o755); err != nil {
		return fmt.Errorf("create data root %s: %w", c.DataRoot, err)
	}
	probe := filepath.Join(c.DataRoot, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("data root %s not writable: %w", c.DataRoot, err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("data root %s not writable: %w", c.DataRoot, err)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid RAGPIPE_LOG_LEVEL %q", raw)
}
