// Package config loads, normalizes, and validates the TOML configuration
// shared by the soundbridge daemon and CLI.
package config
