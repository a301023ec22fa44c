package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskapi/internal/api"
	"taskapi/internal/config"
	"taskapi/internal/models"
)

type createCmdOptions struct {
	description string
	status      string
	priority    string
	dueDate     string
	filePath    string
}

func newCreateCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	opts := &createCmdOptions{}
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, cfg, opts, *jsonOutput, args)
		},
	}

	bindCreateFlags(cmd, opts)
	return cmd
}

func runCreate(cmd *cobra.Command, cfg *config.Config, opts *createCmdOptions, jsonOutput bool, args []string) error {
	var requests []api.TaskCreateRequest
	if opts.filePath != "" {
		data, err := os.ReadFile(opts.filePath)
		if err != nil {
			return err
		}
		requests, err = parseTaskFile(data)
		if err != nil {
			return fmt.Errorf("%s: %w", opts.filePath, err)
		}
	} else {
		req, err := buildCreateRequest(opts, args)
		if err != nil {
			return err
		}
		requests = []api.TaskCreateRequest{req}
	}

	return withClient(cfg, func(client *api.Client) error {
		created, err := createAll(cmd.Context(), client, requests)
		if err != nil {
			return err
		}
		return writeCreated(cmd.OutOrStdout(), created, jsonOutput)
	})
}

func createAll(ctx context.Context, client *api.Client, requests []api.TaskCreateRequest) ([]models.Task, error) {
	created := make([]models.Task, 0, len(requests))
	for i, req := range requests {
		task, err := client.CreateTask(ctx, req)
		if err != nil {
			if len(requests) > 1 {
				return created, fmt.Errorf("task %d (%q): %w", i+1, req.Title, err)
			}
			return created, err
		}
		created = append(created, task)
	}
	return created, nil
}

func writeCreated(w io.Writer, created []models.Task, jsonOutput bool) error {
	if jsonOutput {
		if len(created) == 1 {
			return writeJSON(w, created[0])
		}
		return writeJSON(w, created)
	}
	for _, task := range created {
		if err := writePlain(w, "%s\n", task.ID); err != nil {
			return err
		}
	}
	return nil
}

func buildCreateRequest(opts *createCmdOptions, args []string) (api.TaskCreateRequest, error) {
	if len(args) == 0 {
		return api.TaskCreateRequest{}, errors.New("title is required")
	}

	req := api.TaskCreateRequest{Title: strings.Join(args, " ")}
	if opts.description != "" {
		req.Description = &opts.description
	}
	if opts.status != "" {
		req.Status = &opts.status
	}
	if opts.priority != "" {
		req.Priority = &opts.priority
	}
	if opts.dueDate != "" {
		req.DueDate = &opts.dueDate
	}
	return req, nil
}

// parseTaskFile accepts a single YAML task document, a YAML list of tasks, or
// several documents separated by ---.
func parseTaskFile(data []byte) ([]api.TaskCreateRequest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var out []api.TaskCreateRequest
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
		if len(node.Content) == 0 {
			continue
		}
		root := node.Content[0]
		switch root.Kind {
		case yaml.SequenceNode:
			var batch []api.TaskCreateRequest
			if err := root.Decode(&batch); err != nil {
				return nil, fmt.Errorf("parse yaml: %w", err)
			}
			out = append(out, batch...)
		case yaml.MappingNode:
			var req api.TaskCreateRequest
			if err := root.Decode(&req); err != nil {
				return nil, fmt.Errorf("parse yaml: %w", err)
			}
			out = append(out, req)
		default:
			return nil, fmt.Errorf("line %d: expected a task mapping or a list of tasks", root.Line)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no tasks found")
	}
	for i, req := range out {
		if strings.TrimSpace(req.Title) == "" {
			return nil, fmt.Errorf("task %d: title is required", i+1)
		}
	}
	return out, nil
}

func bindCreateFlags(cmd *cobra.Command, opts *createCmdOptions) {
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&opts.status, "status", "s", "", "initial status (pending, in-progress, completed)")
	cmd.Flags().StringVarP(&opts.priority, "priority", "p", "", "priority (low, medium, high)")
	cmd.Flags().StringVar(&opts.dueDate, "due", "", "due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVarP(&opts.filePath, "file", "f", "", "YAML file with one or more tasks")
}
