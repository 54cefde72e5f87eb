package config

import "strings"

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeBoard(); err != nil {
		return err
	}
	c.normalizeLifecycle()
	c.normalizeHealth()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizeBoard() error {
	var err error
	if c.Board.Executable, err = expandPath(strings.TrimSpace(c.Board.Executable)); err != nil {
		return err
	}
	if c.Board.Document, err = expandPath(strings.TrimSpace(c.Board.Document)); err != nil {
		return err
	}
	c.Board.ControlAddress = strings.TrimSpace(c.Board.ControlAddress)
	return nil
}

func (c *Config) normalizeLifecycle() {
	defaults := Default().Lifecycle
	if c.Lifecycle.GracefulStopSeconds <= 0 {
		c.Lifecycle.GracefulStopSeconds = defaults.GracefulStopSeconds
	}
	if c.Lifecycle.StopPollIntervalMs <= 0 {
		c.Lifecycle.StopPollIntervalMs = defaults.StopPollIntervalMs
	}
	if c.Lifecycle.ForcedStopSeconds <= 0 {
		c.Lifecycle.ForcedStopSeconds = defaults.ForcedStopSeconds
	}
	if c.Lifecycle.ReadyTimeoutSeconds <= 0 {
		c.Lifecycle.ReadyTimeoutSeconds = defaults.ReadyTimeoutSeconds
	}
	if c.Lifecycle.ReadyPollIntervalMs <= 0 {
		c.Lifecycle.ReadyPollIntervalMs = defaults.ReadyPollIntervalMs
	}
}

func (c *Config) normalizeHealth() {
	defaults := Default().Health
	if c.Health.CacheTTLSeconds <= 0 {
		c.Health.CacheTTLSeconds = defaults.CacheTTLSeconds
	}
	if c.Health.ProbeTimeoutMs <= 0 {
		c.Health.ProbeTimeoutMs = defaults.ProbeTimeoutMs
	}
	if c.Health.RequestTimeoutSeconds <= 0 {
		c.Health.RequestTimeoutSeconds = defaults.RequestTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = Default().Logging.RetentionDays
	}
}
