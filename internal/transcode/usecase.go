package transcode

import (
	"context"

	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/pkg/utils"
)

type UseCase interface {
	CreateJob(ctx context.Context, input *models.CreateJobInput) (*models.TranscodeJob, error)
	GetJob(ctx context.Context, jobID int64) (*models.JobDetail, error)
	ListJobs(ctx context.Context, pq *utils.Pagination) (*models.JobList, error)
	DeleteJob(ctx context.Context, jobID int64) error

	GetPresignUpload(ctx context.Context, input *models.UploadInput) (*models.PresignedUpload, error)

	// Process queues a pipeline run for a pending job; Reprocess
	// restarts a terminal job from stage-in.
	Process(ctx context.Context, jobID int64) error
	Reprocess(ctx context.Context, jobID int64) error

	GetPlaybackInfo(ctx context.Context, jobID int64) (*models.PlaybackInfo, error)
}
