package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskapi/internal/config"
	"taskapi/internal/store"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.SQLitePath = filepath.Join(dir, "tasks.db")
	cfg.Blob.LocalRoot = filepath.Join(dir, "blobs")
	cfg.Blob.PublicURL = "http://127.0.0.1:7400"
	cfg.Blob.SigningSecret = "test-secret"
	return &cfg
}

func TestOpenBackendsLocalDefaults(t *testing.T) {
	cfg := localConfig(t)
	b, err := openBackends(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, isSQLite := b.table.(*store.SQLiteStore)
	assert.True(t, isSQLite)
	require.NotNil(t, b.local)
	assert.Same(t, b.local, b.blobs)
}

func TestOpenBackendsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := localConfig(t)
	cfg.Store.Backend = "redis"
	cfg.Store.RedisAddr = mr.Addr()

	b, err := openBackends(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, isRedis := b.table.(*store.RedisStore)
	assert.True(t, isRedis)
}

func TestOpenBackendsRejectsUnknownBackend(t *testing.T) {
	cfg := localConfig(t)
	cfg.Store.Backend = "mongo"
	_, err := openBackends(context.Background(), cfg, testLogger())
	assert.ErrorContains(t, err, "store.backend")
}

func TestNewRouterAppliesAttachmentPolicy(t *testing.T) {
	cfg := localConfig(t)
	cfg.Attachments.MaxUploadBytes = 1234
	b, err := openBackends(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	router, attachments := newRouter(cfg, b, testLogger())
	assert.NotNil(t, router)
	assert.Equal(t, int64(1234), attachments.MaxUploadBytes())
}

func TestNeedsAWS(t *testing.T) {
	cfg := config.Default()
	assert.False(t, needsAWS(&cfg))
	cfg.Store.Backend = "dynamodb"
	assert.True(t, needsAWS(&cfg))
	cfg = config.Default()
	cfg.Blob.Backend = "s3"
	assert.True(t, needsAWS(&cfg))
}
