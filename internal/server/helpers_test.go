package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"taskapi/internal/blobstore"
	"taskapi/internal/models"
	"taskapi/internal/store"
)

// spyBlobs is an in-memory BlobStore that records calls.
type spyBlobs struct {
	mu        sync.Mutex
	objects   map[string][]byte
	opts      map[string]blobstore.PutOptions
	puts      []string
	deletes   []string
	presigns  []string
	putErr    error
	deleteErr error
}

func newSpyBlobs() *spyBlobs {
	return &spyBlobs{objects: map[string][]byte{}, opts: map[string]blobstore.PutOptions{}}
}

func (b *spyBlobs) Put(_ context.Context, key string, data []byte, opts blobstore.PutOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return b.putErr
	}
	b.puts = append(b.puts, key)
	b.objects[key] = append([]byte(nil), data...)
	b.opts[key] = opts
	return nil
}

func (b *spyBlobs) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presigns = append(b.presigns, key)
	return fmt.Sprintf("https://blobs.test/%s?ttl=%d", key, int(expiry.Seconds())), nil
}

func (b *spyBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	b.deletes = append(b.deletes, key)
	delete(b.objects, key)
	return nil
}

// countingTable wraps a TaskTable and counts writes.
type countingTable struct {
	store.TaskTable
	mu        sync.Mutex
	writes    int
	appendErr error
}

func (c *countingTable) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

func (c *countingTable) bump() {
	c.mu.Lock()
	c.writes++
	c.mu.Unlock()
}

func (c *countingTable) PutTask(ctx context.Context, task *models.Task) error {
	c.bump()
	return c.TaskTable.PutTask(ctx, task)
}

func (c *countingTable) UpdateTask(ctx context.Context, id string, update store.TaskUpdate) (*models.Task, error) {
	c.bump()
	return c.TaskTable.UpdateTask(ctx, id, update)
}

func (c *countingTable) DeleteTask(ctx context.Context, id string) error {
	c.bump()
	return c.TaskTable.DeleteTask(ctx, id)
}

func (c *countingTable) AppendAttachment(ctx context.Context, taskID string, attachment models.Attachment) error {
	c.bump()
	if c.appendErr != nil {
		return c.appendErr
	}
	return c.TaskTable.AppendAttachment(ctx, taskID, attachment)
}

func (c *countingTable) RemoveAttachment(ctx context.Context, taskID, fileID string) error {
	c.bump()
	return c.TaskTable.RemoveAttachment(ctx, taskID, fileID)
}

type testEnv struct {
	table       *countingTable
	blobs       *spyBlobs
	tasks       *TaskService
	attachments *AttachmentService
	router      *Router
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	table := &countingTable{TaskTable: st}
	blobs := newSpyBlobs()
	logger := testLogger()
	tasks := NewTaskService(table, logger)
	attachments := NewAttachmentService(table, blobs, logger)
	return &testEnv{
		table:       table,
		blobs:       blobs,
		tasks:       tasks,
		attachments: attachments,
		router:      NewRouter(tasks, attachments, logger),
	}
}

func (e *testEnv) dispatch(t *testing.T, method, path, body string) Response {
	t.Helper()
	return e.router.Dispatch(context.Background(), Request{Method: method, Path: path, Body: body})
}

func decodeBody(t *testing.T, resp Response, dst any) {
	t.Helper()
	if err := json.Unmarshal([]byte(resp.Body), dst); err != nil {
		t.Fatalf("decode response body %q: %v", resp.Body, err)
	}
}

func mustCreateTask(t *testing.T, e *testEnv, body string) models.Task {
	t.Helper()
	resp := e.dispatch(t, "POST", "/tasks", body)
	if resp.StatusCode != 201 {
		t.Fatalf("create task: status %d body %s", resp.StatusCode, resp.Body)
	}
	var task models.Task
	decodeBody(t, resp, &task)
	return task
}
