package main

import (
	"errors"

	"github.com/spf13/cobra"

	"taskapi/internal/api"
	"taskapi/internal/config"
)

func newUpdateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var title, description, status, priority, dueDate string

	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update task fields",
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			req := api.TaskUpdateRequest{}
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("description") {
				req.Description = &description
			}
			if flags.Changed("status") {
				req.Status = &status
			}
			if flags.Changed("priority") {
				req.Priority = &priority
			}
			if flags.Changed("due") {
				req.DueDate = &dueDate
			}
			if req.IsEmpty() {
				return errors.New("no updates specified")
			}

			return withClient(cfg, func(client *api.Client) error {
				task, err := client.UpdateTask(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cmd.OutOrStdout(), task)
				}
				return writePlain(cmd.OutOrStdout(), "%s\n", formatTaskLine(task))
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&status, "status", "s", "", "new status (pending, in-progress, completed)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority (low, medium, high)")
	cmd.Flags().StringVar(&dueDate, "due", "", "new due date; empty clears it")
	return cmd
}
