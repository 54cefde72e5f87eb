package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"soundbridge/internal/ipc"
)

func newPlaybackCommands(ctx *commandContext) []*cobra.Command {
	playCmd := &cobra.Command{
		Use:   "play ID",
		Short: "Play the sound at the given position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSoundID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.Play(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Playing sound #%d\n", id)
				return nil
			})
		},
	}

	stopAllCmd := &cobra.Command{
		Use:   "stop-all",
		Short: "Stop all playback",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.StopAll(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Playback stopped")
				return nil
			})
		},
	}

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Pause or resume playback",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.TogglePause(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Playback toggled")
				return nil
			})
		},
	}

	volumeCmd := &cobra.Command{
		Use:   "volume [PERCENT]",
		Short: "Show or set the soundboard volume",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				var percent int
				var err error
				if len(args) == 1 {
					target, parseErr := strconv.Atoi(args[0])
					if parseErr != nil {
						return fmt.Errorf("invalid volume %q: %w", args[0], parseErr)
					}
					if target < 0 || target > 100 {
						return fmt.Errorf("invalid volume %d: must be between 0 and 100", target)
					}
					percent, err = client.SetVolume(target)
				} else {
					percent, err = client.GetVolume()
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Volume: %d%%\n", percent)
				return nil
			})
		},
	}

	playStatusCmd := &cobra.Command{
		Use:   "play-status",
		Short: "Show the soundboard playback state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.PlayStatus()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}

	return []*cobra.Command{playCmd, stopAllCmd, pauseCmd, volumeCmd, playStatusCmd}
}
