package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"soundbridge/internal/ipc"
)

func newSoundCommand(ctx *commandContext) *cobra.Command {
	soundCmd := &cobra.Command{
		Use:   "sound",
		Short: "Edit sound definitions in the soundlist document",
	}

	soundCmd.AddCommand(newSoundAddCommand(ctx))
	soundCmd.AddCommand(newSoundAttachCommand(ctx))
	soundCmd.AddCommand(newSoundDetachCommand(ctx))
	soundCmd.AddCommand(newSoundRemoveCommand(ctx))
	soundCmd.AddCommand(newSoundUpdateCommand(ctx))

	return soundCmd
}

func newSoundAddCommand(ctx *commandContext) *cobra.Command {
	var req ipc.SoundAddRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a sound definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SoundAdd(req)
				if err != nil {
					return err
				}
				printMutationResult(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.URL, "url", "", "File path of the sound (required)")
	cmd.Flags().StringVar(&req.Tag, "tag", "", "Tag attribute")
	cmd.Flags().StringVar(&req.Artist, "artist", "", "Artist attribute")
	cmd.Flags().StringVar(&req.Title, "title", "", "Title attribute")
	cmd.Flags().StringVar(&req.Duration, "duration", "", "Duration attribute")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newSoundAttachCommand(ctx *commandContext) *cobra.Command {
	var position int

	cmd := &cobra.Command{
		Use:   "attach CATEGORY ID",
		Short: "Place a sound reference inside a category",
		Long: "Place a reference to sound ID inside the named category. Nested\n" +
			"categories are addressed with slash paths, e.g. \"Effects/Loud\".",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSoundID(args[1])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SoundAttach(ipc.SoundAttachRequest{
					Category: args[0],
					ID:       id,
					Position: position,
				})
				if err != nil {
					return err
				}
				printMutationResult(cmd, resp)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&position, "position", -1, "Slot among the category's references (-1 appends)")
	return cmd
}

func newSoundDetachCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "detach ID",
		Short: "Strip every category reference to a sound",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSoundID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SoundDetach(ipc.SoundDetachRequest{ID: id})
				if err != nil {
					return err
				}
				printMutationResult(cmd, resp)
				return nil
			})
		},
	}
}

func newSoundRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove ID",
		Short: "Delete a sound definition and renumber later references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSoundID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SoundRemove(ipc.SoundRemoveRequest{ID: id})
				if err != nil {
					return err
				}
				printMutationResult(cmd, resp)
				return nil
			})
		},
	}
}

func newSoundUpdateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "update ORDINAL KEY=VALUE...",
		Short: "Rewrite attributes on a Sound element",
		Long: "Rewrite attributes on the ORDINAL-th Sound element in document\n" +
			"order (1-based), counting definitions and references alike.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ordinal, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid ordinal %q: %w", args[0], err)
			}
			attrs := make(map[string]string, len(args)-1)
			for _, pair := range args[1:] {
				key, value, found := strings.Cut(pair, "=")
				if !found || strings.TrimSpace(key) == "" {
					return fmt.Errorf("invalid attribute %q: expected KEY=VALUE", pair)
				}
				attrs[key] = value
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SoundUpdate(ipc.SoundUpdateRequest{
					Ordinal:    ordinal,
					Attributes: attrs,
				})
				if err != nil {
					return err
				}
				printMutationResult(cmd, resp)
				return nil
			})
		},
	}
}

func parseSoundID(value string) (int, error) {
	id, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid sound id %q: %w", value, err)
	}
	if id < 0 {
		return 0, fmt.Errorf("invalid sound id %d: must not be negative", id)
	}
	return id, nil
}

func printMutationResult(cmd *cobra.Command, resp *ipc.MutationResponse) {
	stdout := cmd.OutOrStdout()
	if resp.Detail != "" {
		fmt.Fprintln(stdout, resp.Detail)
	}
	if resp.StopDegraded {
		fmt.Fprintln(stdout, "Warning: soundboard was still running after the stop budget")
	}
	if resp.Relaunched {
		fmt.Fprintf(stdout, "Soundboard relaunched (%dms)\n", resp.ElapsedMillis)
	}
	if resp.ReadyDegraded {
		fmt.Fprintln(stdout, "Warning: soundboard has not confirmed readiness yet")
	}
}
