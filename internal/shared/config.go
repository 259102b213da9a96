package shared

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Upload  UploadConfig  `toml:"upload"`
	Auth    AuthConfig    `toml:"auth"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

// APIConfig points the client at the PathFinder auth and analysis services.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// StorageConfig selects the persisted key-value backend.
//
// Driver is "sqlite" (default) or "redis".
type StorageConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	RedisAddr    string `toml:"redis_addr"`
	RedisDB      int    `toml:"redis_db"`
	RedisPrefix  string `toml:"redis_prefix"`
}

// UploadConfig controls candidate validation and progress reporting.
type UploadConfig struct {
	MaxSizeMB          int    `toml:"max_size_mb"` // 0 disables the limit
	Progress           string `toml:"progress"`    // "staged" or "simulated"
	ProgressStep       int    `toml:"progress_step"`
	ProgressIntervalMS int    `toml:"progress_interval_ms"`
}

// AuthConfig throttles login and registration attempts.
type AuthConfig struct {
	AttemptIntervalMS int `toml:"attempt_interval_ms"`
	AttemptBurst      int `toml:"attempt_burst"`
}

// ServerConfig contains settings for the development collaborator server.
type ServerConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	DatabasePath string `toml:"database_path"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MaxSizeBytes returns the upload limit in bytes, or 0 when unlimited.
func (c UploadConfig) MaxSizeBytes() int64 {
	if c.MaxSizeMB <= 0 {
		return 0
	}
	return int64(c.MaxSizeMB) << 20
}

// ProgressInterval returns the simulated progress tick.
func (c UploadConfig) ProgressInterval() time.Duration {
	if c.ProgressIntervalMS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(c.ProgressIntervalMS) * time.Millisecond
}

// AttemptInterval returns the refill interval of the auth attempt limiter.
func (c AuthConfig) AttemptInterval() time.Duration {
	if c.AttemptIntervalMS <= 0 {
		return time.Second
	}
	return time.Duration(c.AttemptIntervalMS) * time.Millisecond
}

// Addr returns host:port for the dev server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ApplyEnv loads envFile (when present) with godotenv and overlays PATHFINDER_* variables onto config.
//
// A missing env file is not an error.
func ApplyEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if v := os.Getenv("PATHFINDER_API_URL"); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv("PATHFINDER_STORAGE_DRIVER"); v != "" {
		config.Storage.Driver = v
	}
	if v := os.Getenv("PATHFINDER_STORAGE_PATH"); v != "" {
		config.Storage.Path = v
	}
	if v := os.Getenv("PATHFINDER_REDIS_ADDR"); v != "" {
		config.Storage.RedisAddr = v
	}
	if v := os.Getenv("PATHFINDER_LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv("PATHFINDER_MAX_SIZE_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PATHFINDER_MAX_SIZE_MB=%q", ErrInvalidConfig, v)
		}
		config.Upload.MaxSizeMB = n
	}

	return nil
}
