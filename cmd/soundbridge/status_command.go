package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"soundbridge/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and soundboard status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return fmt.Errorf("query daemon status: %w", err)
				}
				preflight, err := client.Preflight()
				if err != nil {
					return fmt.Errorf("run preflight checks: %w", err)
				}

				if jsonOut {
					return writeJSON(cmd, struct {
						Status    *ipc.StatusResponse
						Preflight []ipc.PreflightCheck
					}{Status: status, Preflight: preflight.Checks})
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Phase", statusInfo, status.Phase, colorize))
				if status.BoardAlive {
					fmt.Fprintln(stdout, renderStatusLine("Soundboard", statusOK, "running", colorize))
				} else {
					fmt.Fprintln(stdout, renderStatusLine("Soundboard", statusWarn, "stopped", colorize))
				}
				fmt.Fprintln(stdout, renderStatusLine("Document", statusInfo, status.DocumentPath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Journal", statusInfo, journalSummary(status.JournalStats), colorize))
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, check := range preflight.Checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit status as JSON")
	return cmd
}

func journalSummary(stats map[string]int) string {
	if len(stats) == 0 {
		return "empty"
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%d %s", stats[key], key))
	}
	summary := parts[0]
	for _, part := range parts[1:] {
		summary += ", " + part
	}
	return summary
}
