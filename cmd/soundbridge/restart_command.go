package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"soundbridge/internal/ipc"
)

func newRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop and relaunch the soundboard without editing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Restart()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.StopDegraded {
					fmt.Fprintln(stdout, "Warning: soundboard was still running after the stop budget")
				}
				fmt.Fprintf(stdout, "Soundboard restarted (%dms)\n", resp.ElapsedMillis)
				if resp.ReadyDegraded {
					fmt.Fprintln(stdout, "Warning: soundboard has not confirmed readiness yet")
				}
				return nil
			})
		},
	}
}
