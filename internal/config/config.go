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

// Config captures the backend endpoint, media loading limits and log output
// used by fieldview.
type Config struct {
	APIBase        string
	UploadPrefix   string
	TokenFile      string
	RequestTimeout time.Duration
	MaxMediaBytes  int64
	LogLevel       string
	LogEncoding    string
	LogFile        string
}

const (
	defaultConfigPath     = "~/.config/fieldview/config.toml"
	defaultAPIBase        = "127.0.0.1:8080"
	defaultUploadPrefix   = "uploads"
	defaultTokenFile      = "~/.config/fieldview/token"
	defaultRequestTimeout = 15 * time.Second
	defaultMaxMediaBytes  = 64 << 20
	defaultLogLevel       = "info"
	defaultLogEncoding    = "json"
	defaultLogFile        = "~/.local/state/fieldview/fieldview.log"
)

// TokenEnv names the environment variable that overrides the token file.
const TokenEnv = "FIELDVIEW_TOKEN"

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBase:        defaultAPIBase,
		UploadPrefix:   defaultUploadPrefix,
		TokenFile:      mustExpand(defaultTokenFile),
		RequestTimeout: defaultRequestTimeout,
		MaxMediaBytes:  defaultMaxMediaBytes,
		LogLevel:       defaultLogLevel,
		LogEncoding:    defaultLogEncoding,
		LogFile:        mustExpand(defaultLogFile),
	}
}

// Load locates and parses the fieldview config, falling back to defaults when missing.
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
		APIBase               string `toml:"api_base"`
		UploadPrefix          string `toml:"upload_prefix"`
		TokenFile             string `toml:"token_file"`
		RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
		MaxMediaBytes         int64  `toml:"max_media_bytes"`
		LogLevel              string `toml:"log_level"`
		LogEncoding           string `toml:"log_encoding"`
		LogFile               string `toml:"log_file"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIBase = orDefault(raw.APIBase, defaultAPIBase)
	cfg.UploadPrefix = strings.Trim(orDefault(raw.UploadPrefix, defaultUploadPrefix), "/")
	if cfg.UploadPrefix == "" {
		cfg.UploadPrefix = defaultUploadPrefix
	}
	cfg.TokenFile = mustExpand(orDefault(raw.TokenFile, defaultTokenFile))
	if raw.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(raw.RequestTimeoutSeconds) * time.Second
	}
	if raw.MaxMediaBytes > 0 {
		cfg.MaxMediaBytes = raw.MaxMediaBytes
	}
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	cfg.LogEncoding = strings.ToLower(orDefault(raw.LogEncoding, defaultLogEncoding))
	cfg.LogFile = mustExpand(orDefault(raw.LogFile, defaultLogFile))

	return cfg, nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
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
