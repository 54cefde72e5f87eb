package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// writeJSON renders v as one indented JSON document on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
