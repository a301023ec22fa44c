package main

import (
	"github.com/spf13/cobra"

	"taskapi/internal/auth"
)

func newHashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Print a bcrypt hash of an API key for TASKAPI_API_KEY_HASH",
		Args:  requireExactlyArgs(1, "api key is required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashAPIKey(args[0])
			if err != nil {
				return err
			}
			return writePlain(cmd.OutOrStdout(), "%s\n", hash)
		},
	}
}
