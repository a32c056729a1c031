package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/internal/transcode"
	"github.com/clipstream/video-transcoder/pkg/utils"
)

type transcodeRepo struct {
	db *sqlx.DB
}

func NewTranscodeRepo(db *sqlx.DB) transcode.Repository {
	return &transcodeRepo{
		db: db,
	}
}

func (r *transcodeRepo) CreateJob(ctx context.Context, job *models.TranscodeJob) (*models.TranscodeJob, error) {
	created := &models.TranscodeJob{}
	if err := r.db.QueryRowxContext(
		ctx,
		createJobQuery,
		job.Title,
		job.Description,
		job.SourceKey,
		job.OutputMode,
		job.FileSize,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return created, nil
}

func (r *transcodeRepo) GetJobByID(ctx context.Context, jobID int64) (*models.TranscodeJob, error) {
	job := &models.TranscodeJob{}
	if err := r.db.QueryRowxContext(ctx, getJobByIDQuery, jobID).StructScan(job); err != nil {
		return nil, fmt.Errorf("failed to get job by id: %w", err)
	}
	return job, nil
}

func (r *transcodeRepo) ListJobs(ctx context.Context, pq *utils.Pagination) (*models.JobList, error) {
	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, getTotalJobsQuery); err != nil {
		return nil, fmt.Errorf("failed to get total jobs count: %w", err)
	}
	if totalCount == 0 {
		return &models.JobList{
			Jobs:       make([]*models.TranscodeJob, 0),
			TotalCount: 0,
			Page:       pq.GetPage(),
			PageSize:   pq.GetSize(),
			HasMore:    false,
		}, nil
	}
	rows, err := r.db.QueryxContext(ctx, getJobsQuery, pq.GetOffset(), pq.GetLimit())
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()
	jobs := make([]*models.TranscodeJob, 0, pq.GetSize())
	for rows.Next() {
		var job models.TranscodeJob
		if err = rows.StructScan(&job); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, &job)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan jobs: %w", err)
	}
	return &models.JobList{
		Jobs:       jobs,
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}

func (r *transcodeRepo) DeleteJob(ctx context.Context, jobID int64) error {
	res, err := r.db.ExecContext(ctx, deleteJobQuery, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return fmt.Errorf("no job found to delete")
	}
	return nil
}

func (r *transcodeRepo) MarkJobProcessing(ctx context.Context, jobID int64, startedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, markJobProcessingQuery, jobID, startedAt); err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	return nil
}

func (r *transcodeRepo) MarkJobCompleted(ctx context.Context, jobID int64, masterPlaylistKey string, completedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, markJobCompletedQuery, jobID, masterPlaylistKey, completedAt); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

func (r *transcodeRepo) MarkJobFailed(ctx context.Context, jobID int64, errMsg string) error {
	if _, err := r.db.ExecContext(ctx, markJobFailedQuery, jobID, errMsg); err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}
	return nil
}

func (r *transcodeRepo) SetJobMediaInfo(ctx context.Context, jobID int64, duration float64, fileSize int64, width, height int) error {
	if _, err := r.db.ExecContext(ctx, setJobMediaInfoQuery, jobID, duration, fileSize, width, height); err != nil {
		return fmt.Errorf("failed to set job media info: %w", err)
	}
	return nil
}

func (r *transcodeRepo) GetOrCreateRendition(ctx context.Context, rendition *models.Rendition) (*models.Rendition, bool, error) {
	created := &models.Rendition{}
	err := r.db.QueryRowxContext(
		ctx,
		createRenditionQuery,
		rendition.JobID,
		rendition.Resolution,
		rendition.Width,
		rendition.Height,
		rendition.Bitrate,
		rendition.SegmentDuration,
	).StructScan(created)
	if err == nil {
		return created, true, nil
	}
	// ON CONFLICT DO NOTHING returns no row when the rendition already
	// exists; fall back to reading it.
	existing := &models.Rendition{}
	if err = r.db.QueryRowxContext(ctx, getRenditionQuery, rendition.JobID, rendition.Resolution).StructScan(existing); err != nil {
		return nil, false, fmt.Errorf("failed to get or create rendition: %w", err)
	}
	return existing, false, nil
}

func (r *transcodeRepo) ResetRendition(ctx context.Context, renditionID int64) error {
	if _, err := r.db.ExecContext(ctx, resetRenditionQuery, renditionID); err != nil {
		return fmt.Errorf("failed to reset rendition: %w", err)
	}
	return nil
}

func (r *transcodeRepo) GetRenditionsByJob(ctx context.Context, jobID int64) ([]*models.Rendition, error) {
	rows, err := r.db.QueryxContext(ctx, getRenditionsByJobQuery, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get renditions: %w", err)
	}
	defer rows.Close()
	var renditions []*models.Rendition
	for rows.Next() {
		var rendition models.Rendition
		if err = rows.StructScan(&rendition); err != nil {
			return nil, fmt.Errorf("failed to scan rendition: %w", err)
		}
		renditions = append(renditions, &rendition)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan renditions: %w", err)
	}
	return renditions, nil
}

func (r *transcodeRepo) MarkRenditionStarted(ctx context.Context, renditionID int64, startedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, markRenditionStartedQuery, renditionID, startedAt); err != nil {
		return fmt.Errorf("failed to mark rendition started: %w", err)
	}
	return nil
}

func (r *transcodeRepo) CompleteStreamRendition(ctx context.Context, renditionID int64, playlistKey, segmentPrefix string, segmentCount int, completedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, completeStreamRenditionQuery, renditionID, playlistKey, segmentPrefix, segmentCount, completedAt); err != nil {
		return fmt.Errorf("failed to complete stream rendition: %w", err)
	}
	return nil
}

func (r *transcodeRepo) CompleteFileRendition(ctx context.Context, renditionID int64, fileKey string, fileSize int64, completedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, completeFileRenditionQuery, renditionID, fileKey, fileSize, completedAt); err != nil {
		return fmt.Errorf("failed to complete file rendition: %w", err)
	}
	return nil
}

func (r *transcodeRepo) MarkRenditionFailed(ctx context.Context, renditionID int64, errMsg string, failedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, markRenditionFailedQuery, renditionID, errMsg, failedAt); err != nil {
		return fmt.Errorf("failed to mark rendition failed: %w", err)
	}
	return nil
}
