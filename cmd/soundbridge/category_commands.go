package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"soundbridge/internal/ipc"
)

func newCategoryCommand(ctx *commandContext) *cobra.Command {
	categoryCmd := &cobra.Command{
		Use:   "category",
		Short: "Rearrange categories in the soundlist document",
	}

	moveCmd := &cobra.Command{
		Use:   "move NAME POSITION",
		Short: "Move a top-level category to a new slot",
		Long: "Move the named top-level category to POSITION (0-based) among\n" +
			"the visible categories. Hidden categories keep their places.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			position, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid position %q: %w", args[1], err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CategoryReorder(ipc.CategoryReorderRequest{
					Name:     args[0],
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

	categoryCmd.AddCommand(moveCmd)
	return categoryCmd
}
