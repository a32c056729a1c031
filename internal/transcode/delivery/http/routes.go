package http

import (
	"github.com/labstack/echo/v4"

	"github.com/clipstream/video-transcoder/internal/transcode"
)

func MapTranscodeRoutes(group *echo.Group, h transcode.Handler) {
	group.POST("/get-upload-url", h.GetPresignUpload())
	group.POST("/jobs", h.CreateJob())
	group.GET("/jobs", h.ListJobs())
	group.GET("/jobs/:job_id", h.GetJobByID())
	group.DELETE("/jobs/:job_id", h.DeleteJob())
	group.POST("/jobs/:job_id/process", h.ProcessJob())
	group.POST("/jobs/:job_id/reprocess", h.ReprocessJob())
	group.GET("/jobs/:job_id/playback-info", h.GetPlaybackInfo())
}
