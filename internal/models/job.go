package models

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

type OutputMode string

const (
	// ModeStreaming produces an adaptive HLS package: one variant
	// playlist plus segments per rendition and a master playlist.
	ModeStreaming OutputMode = "hls"
	// ModeIndependent produces one flat MP4 file per rendition.
	ModeIndependent OutputMode = "mp4"
)

type TranscodeJob struct {
	JobID               int64      `json:"job_id" db:"job_id" validate:"omitempty"`
	Title               string     `json:"title" db:"title" validate:"required,lte=255"`
	Description         string     `json:"description" db:"description" validate:"omitempty"`
	SourceKey           string     `json:"source_key" db:"source_key" validate:"required,lte=500"`
	MasterPlaylistKey   string     `json:"master_playlist_key" db:"master_playlist_key" validate:"omitempty"`
	Duration            float64    `json:"duration" db:"duration" validate:"omitempty"`
	FileSize            int64      `json:"file_size" db:"file_size" validate:"omitempty"`
	Width               int        `json:"width" db:"width" validate:"omitempty"`
	Height              int        `json:"height" db:"height" validate:"omitempty"`
	OutputMode          OutputMode `json:"output_mode" db:"output_mode" validate:"required,oneof=hls mp4"`
	Status              JobStatus  `json:"status" db:"status" validate:"omitempty"`
	ErrorMessage        string     `json:"error_message" db:"error_message" validate:"omitempty"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at" validate:"omitempty"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at" validate:"omitempty"`
	ProcessingStartedAt *time.Time `json:"processing_started_at" db:"processing_started_at" validate:"omitempty"`
	ProcessedAt         *time.Time `json:"processed_at" db:"processed_at" validate:"omitempty"`
}

func (j *TranscodeJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

type JobList struct {
	Jobs       []*TranscodeJob `json:"jobs"`
	TotalCount int             `json:"total_count"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	HasMore    bool            `json:"has_more"`
}

type JobDetail struct {
	Job        *TranscodeJob `json:"job"`
	Renditions []*Rendition  `json:"renditions"`
}

type CreateJobInput struct {
	Title       string     `json:"title" validate:"required,lte=255"`
	Description string     `json:"description" validate:"omitempty"`
	SourceKey   string     `json:"source_key" validate:"required,lte=500"`
	OutputMode  OutputMode `json:"output_mode" validate:"required,oneof=hls mp4"`
	FileSize    int64      `json:"file_size" validate:"omitempty"`
}
