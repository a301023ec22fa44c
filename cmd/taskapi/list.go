package main

import (
	"github.com/spf13/cobra"

	"taskapi/internal/api"
	"taskapi/internal/config"
)

func newListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ListTasks(cmd.Context(), status)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				return writeTaskList(cmd.OutOrStdout(), resp.Tasks)
			})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only tasks with this exact status")
	return cmd
}
