package models

import "time"

// Rendition is one resolution/bitrate variant derived from a job's
// source video. At most one exists per (job, resolution).
type Rendition struct {
	RenditionID     int64      `json:"rendition_id" db:"rendition_id"`
	JobID           int64      `json:"job_id" db:"job_id"`
	Resolution      string     `json:"resolution" db:"resolution"`
	Width           int        `json:"width" db:"width"`
	Height          int        `json:"height" db:"height"`
	Bitrate         string     `json:"bitrate" db:"bitrate"`
	PlaylistKey     string     `json:"playlist_key" db:"playlist_key"`
	SegmentPrefix   string     `json:"segment_prefix" db:"segment_prefix"`
	SegmentDuration int        `json:"segment_duration" db:"segment_duration"`
	SegmentCount    int        `json:"segment_count" db:"segment_count"`
	FileKey         string     `json:"file_key" db:"file_key"`
	FileSize        int64      `json:"file_size" db:"file_size"`
	StartedAt       *time.Time `json:"started_at" db:"started_at"`
	CompletedAt     *time.Time `json:"completed_at" db:"completed_at"`
	FailedAt        *time.Time `json:"failed_at" db:"failed_at"`
	ErrorMessage    string     `json:"error_message" db:"error_message"`
}

func (r *Rendition) IsCompleted() bool {
	return r.CompletedAt != nil
}

func (r *Rendition) IsFailed() bool {
	return r.FailedAt != nil
}
