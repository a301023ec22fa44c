package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"taskapi/internal/models"
)

const (
	redisTaskPrefix = "task:"
	redisTaskIndex  = "tasks"
	redisMaxRetries = 5
)

var errTaskMissing = errors.New("task missing")

// RedisStore keeps each task as a JSON document under task:{id} and tracks
// ids in a set.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing go-redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// OpenRedis connects to addr and verifies the connection with PING.
func OpenRedis(ctx context.Context, addr string, db int) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return &RedisStore{client: client}, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func redisTaskKey(id string) string {
	return redisTaskPrefix + id
}

func (s *RedisStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	raw, err := s.client.Get(ctx, redisTaskKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return decodeTask(raw)
}

func (s *RedisStore) PutTask(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	task.Normalize()
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisTaskKey(task.ID), payload, 0)
		pipe.SAdd(ctx, redisTaskIndex, task.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put task %s: %w", task.ID, err)
	}
	return nil
}

func (s *RedisStore) UpdateTask(ctx context.Context, id string, update TaskUpdate) (*models.Task, error) {
	var updated *models.Task
	err := s.mutate(ctx, id, func(task *models.Task) error {
		applyTaskUpdate(task, update)
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *RedisStore) DeleteTask(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisTaskKey(id))
		pipe.SRem(ctx, redisTaskIndex, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) ScanTasks(ctx context.Context, filter ScanFilter) ([]models.Task, error) {
	ids, err := s.client.SMembers(ctx, redisTaskIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	tasks := []models.Task{}
	if len(ids) == 0 {
		return tasks, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, redisTaskKey(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("scan tasks: %w", err)
	}
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Index entry without a document; a delete raced the scan.
			continue
		}
		task, err := decodeTask([]byte(raw))
		if err != nil {
			return nil, err
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		tasks = append(tasks, *task)
	}
	sortTasks(tasks)
	return tasks, nil
}

func (s *RedisStore) AppendAttachment(ctx context.Context, taskID string, attachment models.Attachment) error {
	return s.mutate(ctx, taskID, func(task *models.Task) error {
		task.Attachments = append(task.Attachments, attachment)
		return nil
	})
}

func (s *RedisStore) RemoveAttachment(ctx context.Context, taskID, fileID string) error {
	return s.mutate(ctx, taskID, func(task *models.Task) error {
		remaining, removed := withoutAttachment(task.Attachments, fileID)
		if !removed {
			return ErrNotFound
		}
		task.Attachments = remaining
		return nil
	})
}

// mutate runs fn against the stored document under WATCH and writes the
// result in MULTI/EXEC, retrying when another writer touched the key.
func (s *RedisStore) mutate(ctx context.Context, id string, fn func(task *models.Task) error) error {
	key := redisTaskKey(id)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return errTaskMissing
		}
		if err != nil {
			return err
		}
		task, err := decodeTask(raw)
		if err != nil {
			return err
		}
		if err := fn(task); err != nil {
			return err
		}
		payload, err := json.Marshal(task)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisMaxRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, errTaskMissing), errors.Is(err, ErrNotFound):
			return ErrNotFound
		default:
			return fmt.Errorf("update task %s: %w", id, err)
		}
	}
	return fmt.Errorf("update task %s: too many concurrent writers", id)
}

func decodeTask(raw []byte) (*models.Task, error) {
	var task models.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	task.Normalize()
	return &task, nil
}

func applyTaskUpdate(task *models.Task, update TaskUpdate) {
	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	if update.DueDate != nil {
		task.DueDate = *update.DueDate
	}
	task.UpdatedAt = update.UpdatedAt
}
