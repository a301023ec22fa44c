package main

import (
	"encoding/base64"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"taskapi/internal/api"
	"taskapi/internal/config"
	"taskapi/internal/models"
)

func newAttachCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	cmd := &cobra.Command{Use: "attach", Short: "Manage task attachments"}
	cmd.AddCommand(
		newAttachAddCmd(cfg, jsonOutput),
		newAttachListCmd(cfg, jsonOutput),
		newAttachRemoveCmd(cfg, jsonOutput),
	)
	return cmd
}

func newAttachAddCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	var fileName, contentType string

	cmd := &cobra.Command{
		Use:   "add <task-id> <path>",
		Short: "Upload a file and attach it to a task",
		Args:  requireExactlyArgs(2, "task id and path are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[1]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			req := buildUploadRequest(path, data, fileName, contentType)

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.UploadAttachment(cmd.Context(), args[0], req)
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				return writePlain(cmd.OutOrStdout(), "%s\n%s\n", resp.Attachment.FileID, resp.DownloadURL)
			})
		},
	}

	cmd.Flags().StringVar(&fileName, "name", "", "file name to record (defaults to the path's base name)")
	cmd.Flags().StringVar(&contentType, "content-type", "", "content type (guessed from the extension when omitted)")
	return cmd
}

func buildUploadRequest(path string, data []byte, fileName, contentType string) api.AttachmentUploadRequest {
	name := strings.TrimSpace(fileName)
	if name == "" {
		name = filepath.Base(path)
	}
	return api.AttachmentUploadRequest{
		FileName:    name,
		FileContent: base64.StdEncoding.EncodeToString(data),
		ContentType: chooseContentType(contentType, name),
	}
}

func chooseContentType(explicit, fileName string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if guessed := mime.TypeByExtension(filepath.Ext(fileName)); guessed != "" {
		return guessed
	}
	return models.DefaultAttachmentContentType
}

func newAttachListCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's attachments with fresh download links",
		Args:  requireTaskID,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ListAttachments(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				if resp.Count == 0 {
					return writePlain(cmd.OutOrStdout(), "no attachments\n")
				}
				return writeAttachmentList(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func newAttachRemoveCmd(cfg *config.Config, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id> <file-id>",
		Short: "Delete an attachment and its stored file",
		Args:  requireExactlyArgs(2, "task id and file id are required"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.DeleteAttachment(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if *jsonOutput {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				return writePlain(cmd.OutOrStdout(), "%s\n", resp.Message)
			})
		},
	}
}
