package repository

const (
	createJobQuery = `INSERT INTO transcode_jobs (title, description, source_key, output_mode, file_size, status)
					VALUES ($1, $2, $3, $4, NULLIF($5, 0), 'pending') RETURNING *`

	getJobByIDQuery = `SELECT job_id, title, description, source_key, master_playlist_key, duration, file_size,
					width, height, output_mode, status, error_message, created_at, updated_at,
					processing_started_at, processed_at
					FROM transcode_jobs WHERE job_id = $1`

	getJobsQuery = `SELECT job_id, title, description, source_key, master_playlist_key, duration, file_size,
					width, height, output_mode, status, error_message, created_at, updated_at,
					processing_started_at, processed_at
					FROM transcode_jobs ORDER BY created_at DESC OFFSET $1 LIMIT $2`

	getTotalJobsQuery = `SELECT COUNT(job_id) FROM transcode_jobs`

	deleteJobQuery = `DELETE FROM transcode_jobs WHERE job_id = $1`

	markJobProcessingQuery = `UPDATE transcode_jobs
					SET status = 'processing', error_message = '', processing_started_at = $2,
					    processed_at = NULL, updated_at = now()
					WHERE job_id = $1`

	markJobCompletedQuery = `UPDATE transcode_jobs
					SET status = 'completed', master_playlist_key = COALESCE(NULLIF($2, ''), master_playlist_key),
					    processed_at = $3, updated_at = now()
					WHERE job_id = $1`

	markJobFailedQuery = `UPDATE transcode_jobs
					SET status = 'failed', error_message = $2, updated_at = now()
					WHERE job_id = $1`

	setJobMediaInfoQuery = `UPDATE transcode_jobs
					SET duration = $2,
					    file_size = CASE WHEN file_size = 0 THEN $3 ELSE file_size END,
					    width = $4, height = $5, updated_at = now()
					WHERE job_id = $1`

	createRenditionQuery = `INSERT INTO renditions (job_id, resolution, width, height, bitrate, segment_duration, started_at)
					VALUES ($1, $2, $3, $4, $5, $6, now())
					ON CONFLICT (job_id, resolution) DO NOTHING
					RETURNING *`

	getRenditionQuery = `SELECT rendition_id, job_id, resolution, width, height, bitrate, playlist_key,
					segment_prefix, segment_duration, segment_count, file_key, file_size,
					started_at, completed_at, failed_at, error_message
					FROM renditions WHERE job_id = $1 AND resolution = $2`

	getRenditionsByJobQuery = `SELECT rendition_id, job_id, resolution, width, height, bitrate, playlist_key,
					segment_prefix, segment_duration, segment_count, file_key, file_size,
					started_at, completed_at, failed_at, error_message
					FROM renditions WHERE job_id = $1 ORDER BY width ASC`

	resetRenditionQuery = `UPDATE renditions
					SET started_at = now(), completed_at = NULL, failed_at = NULL,
					    error_message = '', segment_count = 0
					WHERE rendition_id = $1`

	markRenditionStartedQuery = `UPDATE renditions
					SET started_at = $2, completed_at = NULL, failed_at = NULL, error_message = ''
					WHERE rendition_id = $1`

	completeStreamRenditionQuery = `UPDATE renditions
					SET playlist_key = $2, segment_prefix = $3, segment_count = $4, completed_at = $5
					WHERE rendition_id = $1`

	completeFileRenditionQuery = `UPDATE renditions
					SET file_key = $2, file_size = $3, completed_at = $4
					WHERE rendition_id = $1`

	markRenditionFailedQuery = `UPDATE renditions
					SET failed_at = $3, error_message = $2
					WHERE rendition_id = $1`
)
