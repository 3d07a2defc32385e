package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/abiturprep/abitur-backend/internal/model"
)

// RedisQueue carries generation jobs from the submission endpoint to the
// GenerationWorker through a Redis list. RPush here, BLPop in the worker.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedisQueue creates a queue on the given Redis list key.
func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

// Enqueue appends a generation job to the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, job model.GenerationJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal generation job: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("enqueue generation job: %w", err)
	}
	return nil
}
