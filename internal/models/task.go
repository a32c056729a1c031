package models

import "time"

// TranscodeTask is the queue payload that tells a worker to run the
// pipeline for a job. Reprocess restarts a terminal job from stage-in.
type TranscodeTask struct {
	JobID      int64     `json:"job_id"`
	Reprocess  bool      `json:"reprocess"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
