package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that the configuration is internally consistent and that
// every required field is populated.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Board.Executable) == "" {
		problems = append(problems, "board.executable must be set")
	}
	if strings.TrimSpace(c.Board.Document) == "" {
		problems = append(problems, "board.document must be set")
	}
	if strings.TrimSpace(c.Board.ControlAddress) == "" {
		problems = append(problems, "board.control_address must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must be set")
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q must be debug, info, warn, or error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
