package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config controls where rill reads from and how it buffers.
type Config struct {
	Endpoint      string
	Capacity      int
	RowHeight     int
	FlushInterval time.Duration
	ChunkSize     int
	Encoding      string
	TrimCR        bool
	MaxLineBytes  int
	ShowMemory    bool
	LogFile       string // empty disables logging
}

const (
	defaultConfigPath    = "~/.config/rill/config.toml"
	defaultLogFile       = "~/.local/state/rill/rill.log"
	defaultEndpoint      = "http://127.0.0.1:8080/view-log"
	defaultCapacity      = 1000
	defaultRowHeight     = 1
	defaultFlushInterval = 100 * time.Millisecond
	defaultChunkSize     = 32 << 10
	defaultEncoding      = "utf-8"
	defaultMaxLineBytes  = 1 << 20
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Endpoint:      defaultEndpoint,
		Capacity:      defaultCapacity,
		RowHeight:     defaultRowHeight,
		FlushInterval: defaultFlushInterval,
		ChunkSize:     defaultChunkSize,
		Encoding:      defaultEncoding,
		TrimCR:        true,
		MaxLineBytes:  defaultMaxLineBytes,
		LogFile:       mustExpand(defaultLogFile),
	}
}

// Load reads the rill config at path (or the default location), falling
// back to defaults when the file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Endpoint      string  `toml:"endpoint"`
		Capacity      int     `toml:"capacity"`
		RowHeight     int     `toml:"row_height"`
		FlushInterval string  `toml:"flush_interval"`
		ChunkSize     int     `toml:"chunk_size"`
		Encoding      string  `toml:"encoding"`
		TrimCR        *bool   `toml:"trim_cr"`
		MaxLineBytes  *int    `toml:"max_line_bytes"`
		ShowMemory    bool    `toml:"show_memory"`
		LogFile       *string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		cfg.Endpoint = v
	}
	if raw.Capacity > 0 {
		cfg.Capacity = raw.Capacity
	}
	if raw.RowHeight > 0 {
		cfg.RowHeight = raw.RowHeight
	}
	if raw.ChunkSize > 0 {
		cfg.ChunkSize = raw.ChunkSize
	}
	if v := strings.TrimSpace(raw.Encoding); v != "" {
		cfg.Encoding = strings.ToLower(v)
	}
	if raw.TrimCR != nil {
		cfg.TrimCR = *raw.TrimCR
	}
	if raw.MaxLineBytes != nil {
		if *raw.MaxLineBytes < 0 {
			return Config{}, fmt.Errorf("parse config: max_line_bytes %d is negative", *raw.MaxLineBytes)
		}
		cfg.MaxLineBytes = *raw.MaxLineBytes
	}
	cfg.ShowMemory = raw.ShowMemory

	if v := strings.TrimSpace(raw.FlushInterval); v != "" {
		interval, err := ParseInterval(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse config: flush_interval: %w", err)
		}
		cfg.FlushInterval = interval
	}

	if raw.LogFile != nil {
		cfg.LogFile = ""
		if v := strings.TrimSpace(*raw.LogFile); v != "" {
			cfg.LogFile = mustExpand(v)
		}
	}

	return cfg, nil
}

// ParseInterval parses a flush interval. Zero selects push-on-chunk
// publication; negative values are rejected.
func ParseInterval(value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("interval %s is negative", d)
	}
	return d, nil
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
