package transcode

import (
	"context"
	"time"

	"github.com/clipstream/video-transcoder/internal/models"
)

// QueueRepository hands transcode tasks to workers and guards each job
// with an advisory processing lock so concurrent reprocess triggers
// cannot race.
type QueueRepository interface {
	EnqueueTask(ctx context.Context, key string, task *models.TranscodeTask) error
	// DequeueTask blocks up to timeout and returns (nil, nil) when no
	// task arrived.
	DequeueTask(ctx context.Context, key string, timeout time.Duration) (*models.TranscodeTask, error)

	AcquireJobLock(ctx context.Context, jobID int64, ttl time.Duration) (bool, error)
	ReleaseJobLock(ctx context.Context, jobID int64) error
}
