package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir  string `toml:"log_dir"`
	DataDir string `toml:"data_dir"`
}

// Board contains configuration for the managed soundboard application.
type Board struct {
	Executable     string `toml:"executable"`
	Document       string `toml:"document"`
	ControlAddress string `toml:"control_address"`
}

// Lifecycle contains the timing budgets for the stop/edit/relaunch cycle.
type Lifecycle struct {
	GracefulStopSeconds int `toml:"graceful_stop_seconds"`
	StopPollIntervalMs  int `toml:"stop_poll_interval_ms"`
	ForcedStopSeconds   int `toml:"forced_stop_seconds"`
	ReadyTimeoutSeconds int `toml:"ready_timeout_seconds"`
	ReadyPollIntervalMs int `toml:"ready_poll_interval_ms"`
}

// Health contains configuration for control channel liveness checks.
type Health struct {
	CacheTTLSeconds       int `toml:"cache_ttl_seconds"`
	ProbeTimeoutMs        int `toml:"probe_timeout_ms"`
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Soundbridge.
//
// Configuration sections by subsystem:
//   - Paths: log and state directories
//   - Board: soundboard executable, soundlist document, control channel
//   - Lifecycle: timing budgets for stop, relaunch, and readiness
//   - Health: liveness cache and probe timeouts
//   - Logging: log format, level, and retention
type Config struct {
	Paths     Paths     `toml:"paths"`
	Board     Board     `toml:"board"`
	Lifecycle Lifecycle `toml:"lifecycle"`
	Health    Health    `toml:"health"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/soundbridge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/soundbridge/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("soundbridge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the mutation journal database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "soundbridge.db")
}

// SocketPath returns the unix socket address used for daemon IPC.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "soundbridge.sock")
}

// LockPath returns the file lock guarding single-instance daemon operation.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "soundbridge.lock")
}

// DocumentLockPath returns the sidecar lock taken while the soundlist
// document is being rewritten.
func (c *Config) DocumentLockPath() string {
	return c.Board.Document + ".lock"
}

// BoardProcessName returns the executable basename used to locate running
// soundboard processes.
func (c *Config) BoardProcessName() string {
	return filepath.Base(c.Board.Executable)
}

// GracefulStopBudget returns how long a polite stop request may take before
// escalating to a forced kill.
func (c *Config) GracefulStopBudget() time.Duration {
	return time.Duration(c.Lifecycle.GracefulStopSeconds) * time.Second
}

// StopPollInterval returns the delay between process-exit polls during a stop.
func (c *Config) StopPollInterval() time.Duration {
	return time.Duration(c.Lifecycle.StopPollIntervalMs) * time.Millisecond
}

// ForcedStopBudget returns how long a forced kill may take before the stop is
// abandoned with a warning.
func (c *Config) ForcedStopBudget() time.Duration {
	return time.Duration(c.Lifecycle.ForcedStopSeconds) * time.Second
}

// ReadyTimeout returns how long to wait for the control channel to come up
// after a relaunch.
func (c *Config) ReadyTimeout() time.Duration {
	return time.Duration(c.Lifecycle.ReadyTimeoutSeconds) * time.Second
}

// ReadyPollInterval returns the delay between readiness probes after a relaunch.
func (c *Config) ReadyPollInterval() time.Duration {
	return time.Duration(c.Lifecycle.ReadyPollIntervalMs) * time.Millisecond
}

// HealthCacheTTL returns the validity window of a cached liveness reading.
func (c *Config) HealthCacheTTL() time.Duration {
	return time.Duration(c.Health.CacheTTLSeconds) * time.Second
}

// ProbeTimeout returns the deadline for a single liveness probe.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Health.ProbeTimeoutMs) * time.Millisecond
}

// RequestTimeout returns the deadline for a full control channel request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Health.RequestTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
