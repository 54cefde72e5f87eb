package preflight

import (
	"context"

	"soundbridge/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckExecutable("Soundboard executable", cfg.Board.Executable),
		CheckDocument("Soundlist document", cfg.Board.Document),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDiskHeadroom("Disk headroom", cfg.Board.Document),
		CheckControlChannel(ctx, "Control channel", cfg.Board.ControlAddress),
	}
	return results
}

// Passed reports whether every result in the set passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
