package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"taskapi/internal/blobstore"
	"taskapi/internal/config"
	"taskapi/internal/server"
	"taskapi/internal/store"
)

// backends holds everything the router needs plus the resources to release
// on shutdown.
type backends struct {
	table   store.TaskTable
	blobs   blobstore.BlobStore
	local   *blobstore.LocalStore
	closers []func() error
}

func (b *backends) Close() error {
	var first error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func needsAWS(cfg *config.Config) bool {
	return cfg.Store.Backend == "dynamodb" || cfg.Blob.Backend == "s3"
}

func loadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

func openBackends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*backends, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var awsCfg aws.Config
	if needsAWS(cfg) {
		var err error
		if awsCfg, err = loadAWSConfig(ctx, cfg); err != nil {
			return nil, err
		}
	}

	b := &backends{}
	if err := b.openTable(ctx, cfg, awsCfg, logger); err != nil {
		return nil, err
	}
	if err := b.openBlobs(cfg, awsCfg, logger); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *backends) openTable(ctx context.Context, cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) error {
	switch cfg.Store.Backend {
	case "dynamodb":
		logger.Info("using dynamodb task table", "table", cfg.Store.Table, "region", cfg.AWS.Region)
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			}
		})
		b.table = store.NewDynamoStore(client, cfg.Store.Table)
	case "redis":
		logger.Info("connecting to redis", "addr", cfg.Store.RedisAddr, "db", cfg.Store.RedisDB)
		st, err := store.OpenRedis(ctx, cfg.Store.RedisAddr, cfg.Store.RedisDB)
		if err != nil {
			return err
		}
		b.table = st
		b.closers = append(b.closers, st.Close)
	default:
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("db path is required")
		}
		logger.Info("opening database", "path", cfg.Store.SQLitePath)
		st, err := store.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return err
		}
		b.table = st
		b.closers = append(b.closers, st.Close)
	}
	return nil
}

func (b *backends) openBlobs(cfg *config.Config, awsCfg aws.Config, logger *slog.Logger) error {
	switch cfg.Blob.Backend {
	case "s3":
		logger.Info("using s3 attachment bucket", "bucket", cfg.Blob.Bucket)
		b.blobs = blobstore.NewS3StoreFromConfig(awsCfg, cfg.Blob.Bucket, cfg.AWS.Endpoint, cfg.AWS.UsePathStyle)
	default:
		if cfg.Blob.SigningSecret == "" {
			logger.Warn("blob.signing_secret is empty; download links will not survive a restart")
		}
		local, err := blobstore.NewLocalStore(cfg.Blob.LocalRoot, cfg.Blob.PublicURL, []byte(cfg.Blob.SigningSecret))
		if err != nil {
			return err
		}
		logger.Info("using local attachment store", "root", cfg.Blob.LocalRoot)
		b.blobs = local
		b.local = local
	}
	return nil
}

// newRouter builds the services and router over b with cfg's attachment
// policy applied.
func newRouter(cfg *config.Config, b *backends, logger *slog.Logger) (*server.Router, *server.AttachmentService) {
	tasks := server.NewTaskService(b.table, logger)
	tasks.ConfigureCascadeDelete(b.blobs, cfg.Attachments.CascadeDelete)

	attachments := server.NewAttachmentService(b.table, b.blobs, logger)
	attachments.ConfigurePolicy(cfg.Attachments.MaxUploadBytes, cfg.Attachments.DownloadURLTTL)

	return server.NewRouter(tasks, attachments, logger), attachments
}
