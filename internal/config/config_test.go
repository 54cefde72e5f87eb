package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[board]
executable = "/opt/board/board"
document = "/opt/board/soundlist.spl"
`)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Board.ControlAddress != "127.0.0.1:8866" {
		t.Fatalf("control address default = %q", cfg.Board.ControlAddress)
	}
	if cfg.GracefulStopBudget() != 6*time.Second {
		t.Fatalf("graceful stop budget = %v", cfg.GracefulStopBudget())
	}
	if cfg.StopPollInterval() != 250*time.Millisecond {
		t.Fatalf("stop poll interval = %v", cfg.StopPollInterval())
	}
	if cfg.ReadyTimeout() != 15*time.Second {
		t.Fatalf("ready timeout = %v", cfg.ReadyTimeout())
	}
	if cfg.HealthCacheTTL() != 2*time.Second {
		t.Fatalf("health cache ttl = %v", cfg.HealthCacheTTL())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Fatalf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadMissingRequiredFields(t *testing.T) {
	path := writeConfig(t, `
[lifecycle]
graceful_stop_seconds = 4
`)

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "board.executable must be set") {
		t.Fatalf("error missing executable complaint: %v", err)
	}
	if !strings.Contains(err.Error(), "board.document must be set") {
		t.Fatalf("error missing document complaint: %v", err)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	path := writeConfig(t, `
[board]
executable = "/opt/board/board"
document = "/opt/board/soundlist.spl"

[logging]
format = "xml"
level = "loud"
`)

	_, _, _, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "logging.format") || !strings.Contains(err.Error(), "logging.level") {
		t.Fatalf("error = %v", err)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	path := writeConfig(t, `
[board]
executable = "~/board/board"
document = "~/board/soundlist.spl"
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !strings.HasPrefix(cfg.Board.Executable, home) {
		t.Fatalf("executable not expanded: %q", cfg.Board.Executable)
	}
	if !strings.HasPrefix(cfg.Paths.DataDir, home) {
		t.Fatalf("data dir not expanded: %q", cfg.Paths.DataDir)
	}
}

func TestNormalizeClampsZeroBudgets(t *testing.T) {
	path := writeConfig(t, `
[board]
executable = "/opt/board/board"
document = "/opt/board/soundlist.spl"

[lifecycle]
graceful_stop_seconds = 0
ready_poll_interval_ms = -10
`)

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lifecycle.GracefulStopSeconds != 6 {
		t.Fatalf("graceful_stop_seconds = %d", cfg.Lifecycle.GracefulStopSeconds)
	}
	if cfg.Lifecycle.ReadyPollIntervalMs != 500 {
		t.Fatalf("ready_poll_interval_ms = %d", cfg.Lifecycle.ReadyPollIntervalMs)
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "/var/lib/soundbridge"
	cfg.Board.Executable = "/opt/board/Board.exe"
	cfg.Board.Document = "/opt/board/soundlist.spl"

	if got := cfg.DatabasePath(); got != "/var/lib/soundbridge/soundbridge.db" {
		t.Fatalf("DatabasePath = %q", got)
	}
	if got := cfg.SocketPath(); got != "/var/lib/soundbridge/soundbridge.sock" {
		t.Fatalf("SocketPath = %q", got)
	}
	if got := cfg.DocumentLockPath(); got != "/opt/board/soundlist.spl.lock" {
		t.Fatalf("DocumentLockPath = %q", got)
	}
	if got := cfg.BoardProcessName(); got != "Board.exe" {
		t.Fatalf("BoardProcessName = %q", got)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[board]") {
		t.Fatal("sample missing [board] section")
	}
}
