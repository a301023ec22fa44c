package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskapi/internal/config"
	"taskapi/internal/server"
)

func newSrvCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "srv",
		Short: "Run the task API HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg == nil {
				return fmt.Errorf("config not initialized")
			}

			logger := slog.Default().With("component", "server")

			addr, err := server.ListenAddr(cfg.APIURL)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			b, err := openBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			router, attachments := newRouter(cfg, b, logger)
			srv := server.New(addr, router, logger)
			srv.ConfigureUploads(attachments.MaxUploadBytes())
			if b.local != nil {
				srv.ServeLocalBlobs(b.local)
			}
			return srv.ListenAndServe(ctx)
		},
	}
}
