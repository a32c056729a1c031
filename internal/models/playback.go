package models

// PlaybackInfo is the read-side view handed to players: a signed master
// playlist URL for streaming jobs, or per-rendition file URLs for
// independent jobs.
type PlaybackInfo struct {
	JobID             int64             `json:"job_id"`
	Title             string            `json:"title"`
	Duration          float64           `json:"duration"`
	Status            JobStatus         `json:"status"`
	OutputMode        OutputMode        `json:"output_mode"`
	MasterPlaylistURL string            `json:"master_playlist_url,omitempty"`
	RenditionURLs     map[string]string `json:"rendition_urls,omitempty"`
}
