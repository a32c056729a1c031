package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/internal/transcode"
)

const jobLockPrefix = "transcode:lock:"

type queueRedisRepo struct {
	redisClient *redis.Client
}

func NewQueueRedisRepo(redisClient *redis.Client) transcode.QueueRepository {
	return &queueRedisRepo{
		redisClient: redisClient,
	}
}

func (q *queueRedisRepo) EnqueueTask(ctx context.Context, key string, task *models.TranscodeTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	if err = q.redisClient.LPush(ctx, key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

func (q *queueRedisRepo) DequeueTask(ctx context.Context, key string, timeout time.Duration) (*models.TranscodeTask, error) {
	res, err := q.redisClient.BRPop(ctx, timeout, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue task: %w", err)
	}
	task := &models.TranscodeTask{}
	if err = json.Unmarshal([]byte(res[1]), task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return task, nil
}

func (q *queueRedisRepo) AcquireJobLock(ctx context.Context, jobID int64, ttl time.Duration) (bool, error) {
	lockKey := fmt.Sprintf("%s%d", jobLockPrefix, jobID)
	locked, err := q.redisClient.SetNX(ctx, lockKey, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire job lock: %w", err)
	}
	return locked, nil
}

func (q *queueRedisRepo) ReleaseJobLock(ctx context.Context, jobID int64) error {
	lockKey := fmt.Sprintf("%s%d", jobLockPrefix, jobID)
	if err := q.redisClient.Del(ctx, lockKey).Err(); err != nil {
		return fmt.Errorf("failed to release job lock: %w", err)
	}
	return nil
}
