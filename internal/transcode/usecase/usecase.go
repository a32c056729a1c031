package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clipstream/video-transcoder/internal/config"
	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/internal/pipeline"
	"github.com/clipstream/video-transcoder/internal/transcode"
	"github.com/clipstream/video-transcoder/pkg/logger"
	"github.com/clipstream/video-transcoder/pkg/utils"
)

const (
	uploadURLTTL   = 15 * time.Minute
	playbackURLTTL = 1 * time.Hour
)

type transcodeUC struct {
	cfg       *config.Config
	repo      transcode.Repository
	queueRepo transcode.QueueRepository
	storage   transcode.Storage
	logger    logger.Logger
}

func NewTranscodeUseCase(
	cfg *config.Config,
	repo transcode.Repository,
	queueRepo transcode.QueueRepository,
	storage transcode.Storage,
	log logger.Logger,
) transcode.UseCase {
	return &transcodeUC{
		cfg:       cfg,
		repo:      repo,
		queueRepo: queueRepo,
		storage:   storage,
		logger:    log,
	}
}

func (u *transcodeUC) GetPresignUpload(ctx context.Context, input *models.UploadInput) (*models.PresignedUpload, error) {
	if input == nil {
		return nil, fmt.Errorf("invalid input: input is nil")
	}
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("GetPresignUpload - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}

	key := pipeline.SourceUploadKey(input.Name)
	u.logger.Infof("Generating presigned upload for key: %s", key)
	upload, err := u.storage.PresignUpload(ctx, key, input.MimeType, uploadURLTTL)
	if err != nil {
		u.logger.Errorf("GetPresignUpload - PresignUpload error: %v", err)
		return nil, fmt.Errorf("failed to generate presigned upload: %v", err)
	}
	return upload, nil
}

// CreateJob registers a pending job for an already-uploaded source and
// queues its first pipeline run.
func (u *transcodeUC) CreateJob(ctx context.Context, input *models.CreateJobInput) (*models.TranscodeJob, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("CreateJob - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}

	exists, err := u.storage.Exists(ctx, input.SourceKey)
	if err != nil {
		u.logger.Errorf("CreateJob - Exists error: %v", err)
		return nil, fmt.Errorf("failed to check source object: %v", err)
	}
	if !exists {
		return nil, fmt.Errorf("source object %q not found", input.SourceKey)
	}

	job, err := u.repo.CreateJob(ctx, &models.TranscodeJob{
		Title:       input.Title,
		Description: input.Description,
		SourceKey:   input.SourceKey,
		OutputMode:  input.OutputMode,
		FileSize:    input.FileSize,
		Status:      models.JobStatusPending,
	})
	if err != nil {
		u.logger.Errorf("CreateJob - CreateJob error: %v", err)
		return nil, err
	}

	if err = u.enqueue(ctx, job.JobID, false); err != nil {
		return nil, err
	}
	u.logger.Infof("Created job %d for source %s (%s mode)", job.JobID, job.SourceKey, job.OutputMode)
	return job, nil
}

func (u *transcodeUC) GetJob(ctx context.Context, jobID int64) (*models.JobDetail, error) {
	job, err := u.repo.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			u.logger.Warnf("Job not found with ID: %d", jobID)
			return nil, fmt.Errorf("job not found")
		}
		u.logger.Errorf("GetJob - GetJobByID error: %v", err)
		return nil, fmt.Errorf("failed to fetch job: %v", err)
	}
	renditions, err := u.repo.GetRenditionsByJob(ctx, jobID)
	if err != nil {
		u.logger.Errorf("GetJob - GetRenditionsByJob error: %v", err)
		return nil, fmt.Errorf("failed to fetch renditions: %v", err)
	}
	return &models.JobDetail{Job: job, Renditions: renditions}, nil
}

func (u *transcodeUC) ListJobs(ctx context.Context, pq *utils.Pagination) (*models.JobList, error) {
	if pq == nil {
		pq = &utils.Pagination{Page: 1, Size: 10}
	}
	if pq.Page < 1 {
		pq.Page = 1
	}
	if pq.Size < 1 || pq.Size > 100 {
		pq.Size = 10
	}
	jobs, err := u.repo.ListJobs(ctx, pq)
	if err != nil {
		u.logger.Errorf("ListJobs - ListJobs error: %v", err)
		return nil, fmt.Errorf("failed to fetch jobs: %v", err)
	}
	u.logger.Infof("Fetched %d jobs (total: %d, page: %d/%d)",
		len(jobs.Jobs),
		jobs.TotalCount,
		jobs.Page,
		utils.GetTotalPages(jobs.TotalCount, pq.GetSize()),
	)
	return jobs, nil
}

// DeleteJob removes the job row and best-effort deletes its stored
// artifacts. Segment keys are reconstructed from the recorded segment
// count and naming pattern.
func (u *transcodeUC) DeleteJob(ctx context.Context, jobID int64) error {
	job, err := u.repo.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("job not found")
		}
		u.logger.Errorf("DeleteJob - GetJobByID error: %v", err)
		return fmt.Errorf("failed to fetch job: %v", err)
	}
	renditions, err := u.repo.GetRenditionsByJob(ctx, jobID)
	if err != nil {
		u.logger.Errorf("DeleteJob - GetRenditionsByJob error: %v", err)
		return fmt.Errorf("failed to fetch renditions: %v", err)
	}

	if job.MasterPlaylistKey != "" {
		u.deleteArtifact(ctx, job.MasterPlaylistKey)
	}
	for _, r := range renditions {
		if r.PlaylistKey != "" {
			u.deleteArtifact(ctx, r.PlaylistKey)
		}
		for i := 0; i < r.SegmentCount; i++ {
			u.deleteArtifact(ctx, r.SegmentPrefix+fmt.Sprintf("segment_%03d.ts", i))
		}
		if r.FileKey != "" {
			u.deleteArtifact(ctx, r.FileKey)
		}
	}

	if err = u.repo.DeleteJob(ctx, jobID); err != nil {
		u.logger.Errorf("DeleteJob - DeleteJob error: %v", err)
		return fmt.Errorf("failed to delete job: %v", err)
	}
	u.logger.Infof("Deleted job %d", jobID)
	return nil
}

func (u *transcodeUC) deleteArtifact(ctx context.Context, key string) {
	if err := u.storage.Delete(ctx, key); err != nil {
		u.logger.Warnf("failed to delete artifact %q: %v", key, err)
	}
}

func (u *transcodeUC) Process(ctx context.Context, jobID int64) error {
	job, err := u.repo.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("job not found")
		}
		u.logger.Errorf("Process - GetJobByID error: %v", err)
		return fmt.Errorf("failed to fetch job: %v", err)
	}
	if job.Status == models.JobStatusProcessing {
		return fmt.Errorf("job %d is already processing", jobID)
	}
	return u.enqueue(ctx, jobID, false)
}

func (u *transcodeUC) Reprocess(ctx context.Context, jobID int64) error {
	job, err := u.repo.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("job not found")
		}
		u.logger.Errorf("Reprocess - GetJobByID error: %v", err)
		return fmt.Errorf("failed to fetch job: %v", err)
	}
	if !job.IsTerminal() {
		return fmt.Errorf("job %d is not finished; only completed or failed jobs can be reprocessed", jobID)
	}
	return u.enqueue(ctx, jobID, true)
}

func (u *transcodeUC) enqueue(ctx context.Context, jobID int64, reprocess bool) error {
	task := &models.TranscodeTask{
		JobID:      jobID,
		Reprocess:  reprocess,
		EnqueuedAt: time.Now(),
	}
	if err := u.queueRepo.EnqueueTask(ctx, u.cfg.Redis.JobQueueKey, task); err != nil {
		u.logger.Errorf("enqueue - EnqueueTask error: %v", err)
		return fmt.Errorf("failed to queue the job: %v", err)
	}
	return nil
}

func (u *transcodeUC) GetPlaybackInfo(ctx context.Context, jobID int64) (*models.PlaybackInfo, error) {
	job, err := u.repo.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("job not found")
		}
		u.logger.Errorf("GetPlaybackInfo - GetJobByID error: %v", err)
		return nil, fmt.Errorf("failed to fetch job: %v", err)
	}

	info := &models.PlaybackInfo{
		JobID:      job.JobID,
		Title:      job.Title,
		Duration:   job.Duration,
		Status:     job.Status,
		OutputMode: job.OutputMode,
	}
	if job.Status != models.JobStatusCompleted {
		return info, nil
	}

	renditions, err := u.repo.GetRenditionsByJob(ctx, jobID)
	if err != nil {
		u.logger.Errorf("GetPlaybackInfo - GetRenditionsByJob error: %v", err)
		return nil, fmt.Errorf("failed to fetch renditions: %v", err)
	}

	if job.OutputMode == models.ModeStreaming && job.MasterPlaylistKey != "" {
		info.MasterPlaylistURL = u.playbackURL(ctx, job.MasterPlaylistKey)
	}
	info.RenditionURLs = make(map[string]string, len(renditions))
	for _, r := range renditions {
		if !r.IsCompleted() {
			continue
		}
		switch job.OutputMode {
		case models.ModeStreaming:
			info.RenditionURLs[r.Resolution] = u.playbackURL(ctx, r.PlaylistKey)
		case models.ModeIndependent:
			info.RenditionURLs[r.Resolution] = u.playbackURL(ctx, r.FileKey)
		}
	}
	return info, nil
}

// playbackURL signs a download URL, falling back to the raw key for
// backends without presigning (local disk served statically).
func (u *transcodeUC) playbackURL(ctx context.Context, key string) string {
	url, err := u.storage.PresignDownload(ctx, key, playbackURLTTL)
	if err != nil {
		u.logger.Warnf("failed to presign %q, returning key: %v", key, err)
		return key
	}
	return url
}
