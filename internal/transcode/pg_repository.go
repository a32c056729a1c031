package transcode

import (
	"context"
	"time"

	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/pkg/utils"
)

// Repository is the job/rendition state store. Status changes go
// through the explicit transition methods rather than whole-row
// updates so the state machine stays auditable.
type Repository interface {
	CreateJob(ctx context.Context, job *models.TranscodeJob) (*models.TranscodeJob, error)
	GetJobByID(ctx context.Context, jobID int64) (*models.TranscodeJob, error)
	ListJobs(ctx context.Context, pq *utils.Pagination) (*models.JobList, error)
	DeleteJob(ctx context.Context, jobID int64) error

	MarkJobProcessing(ctx context.Context, jobID int64, startedAt time.Time) error
	MarkJobCompleted(ctx context.Context, jobID int64, masterPlaylistKey string, completedAt time.Time) error
	MarkJobFailed(ctx context.Context, jobID int64, errMsg string) error
	SetJobMediaInfo(ctx context.Context, jobID int64, duration float64, fileSize int64, width, height int) error

	// GetOrCreateRendition inserts the rendition if no row exists for
	// (job, resolution) and reports whether it created one.
	GetOrCreateRendition(ctx context.Context, rendition *models.Rendition) (*models.Rendition, bool, error)
	ResetRendition(ctx context.Context, renditionID int64) error
	GetRenditionsByJob(ctx context.Context, jobID int64) ([]*models.Rendition, error)

	MarkRenditionStarted(ctx context.Context, renditionID int64, startedAt time.Time) error
	CompleteStreamRendition(ctx context.Context, renditionID int64, playlistKey, segmentPrefix string, segmentCount int, completedAt time.Time) error
	CompleteFileRendition(ctx context.Context, renditionID int64, fileKey string, fileSize int64, completedAt time.Time) error
	MarkRenditionFailed(ctx context.Context, renditionID int64, errMsg string, failedAt time.Time) error
}
