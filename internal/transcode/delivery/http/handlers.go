package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clipstream/video-transcoder/internal/models"
	"github.com/clipstream/video-transcoder/internal/transcode"
	"github.com/clipstream/video-transcoder/pkg/utils"
)

type transcodeHandler struct {
	transcodeUC transcode.UseCase
}

func NewTranscodeHandler(transcodeUC transcode.UseCase) transcode.Handler {
	return &transcodeHandler{
		transcodeUC: transcodeUC,
	}
}

func (h *transcodeHandler) GetPresignUpload() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.UploadInput{}
		if err := utils.ReadRequest(c, input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		upload, err := h.transcodeUC.GetPresignUpload(c.Request().Context(), input)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, upload)
	}
}

func (h *transcodeHandler) CreateJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.CreateJobInput{}
		if err := utils.ReadRequest(c, input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		job, err := h.transcodeUC.CreateJob(c.Request().Context(), input)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusCreated, job)
	}
}

func (h *transcodeHandler) ListJobs() echo.HandlerFunc {
	return func(c echo.Context) error {
		pagination, err := utils.GetPaginationFromCtx(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		jobs, err := h.transcodeUC.ListJobs(c.Request().Context(), pagination)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, jobs)
	}
}

func (h *transcodeHandler) GetJobByID() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := parseJobID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		detail, err := h.transcodeUC.GetJob(c.Request().Context(), jobID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, detail)
	}
}

func (h *transcodeHandler) DeleteJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := parseJobID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		if err = h.transcodeUC.DeleteJob(c.Request().Context(), jobID); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "Job deleted successfully"})
	}
}

func (h *transcodeHandler) ProcessJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := parseJobID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		if err = h.transcodeUC.Process(c.Request().Context(), jobID); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, map[string]string{"message": "Job queued for processing"})
	}
}

func (h *transcodeHandler) ReprocessJob() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := parseJobID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		if err = h.transcodeUC.Reprocess(c.Request().Context(), jobID); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusAccepted, map[string]string{"message": "Job queued for reprocessing"})
	}
}

func (h *transcodeHandler) GetPlaybackInfo() echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID, err := parseJobID(c)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid job id"})
		}
		playbackInfo, err := h.transcodeUC.GetPlaybackInfo(c.Request().Context(), jobID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, playbackInfo)
	}
}

func parseJobID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("job_id"), 10, 64)
}
