package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"taskapi/internal/config"
	"taskapi/internal/server"
)

func newLambdaCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Serve API Gateway proxy events inside the Lambda runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}
			if cfg.Blob.Backend == "local" {
				return fmt.Errorf("blob.backend=local cannot serve downloads from lambda; set TASKAPI_BLOB_BACKEND=s3")
			}

			installJSONLogger(os.Stderr)
			logger := slog.Default().With("component", "lambda")
			b, err := openBackends(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			router, _ := newRouter(cfg, b, logger)
			lambda.Start(server.NewLambdaHandler(router).Handle)
			return nil
		},
	}
}
