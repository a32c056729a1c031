package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	hlsCategory   = "hls_videos"
	videoCategory = "videos"

	PlaylistContentType = "application/vnd.apple.mpegurl"
	SegmentContentType  = "video/mp2t"
	MP4ContentType      = "video/mp4"
)

// MasterPlaylistKey locates the master playlist for a streaming job.
func MasterPlaylistKey(jobID int64) string {
	return fmt.Sprintf("%s/%d/master.m3u8", hlsCategory, jobID)
}

// VariantPlaylistKey locates one resolution variant's playlist.
func VariantPlaylistKey(jobID int64, resolution string) string {
	return fmt.Sprintf("%s/%d/%s/playlist.m3u8", hlsCategory, jobID, resolution)
}

// SegmentPrefix is the key prefix under which a variant's numbered
// segments live; segment keys are prefix + filename.
func SegmentPrefix(jobID int64, resolution string) string {
	return fmt.Sprintf("%s/%d/%s/", hlsCategory, jobID, resolution)
}

// RenditionFileKey locates a flat MP4 rendition in independent mode.
func RenditionFileKey(jobID int64, resolution, filename string) string {
	return fmt.Sprintf("%s/processed/%d/%s/%s", videoCategory, jobID, resolution, filename)
}

// SourceUploadKey builds the key for a freshly uploaded source file.
// The timestamp plus short unique suffix keeps concurrent uploads of
// same-named files from colliding.
func SourceUploadKey(filename string) string {
	ext := filepath.Ext(filename)
	shortID := uuid.New().String()[:8]
	return fmt.Sprintf("%s/originals/%d_%s%s", videoCategory, time.Now().Unix(), shortID, ext)
}
