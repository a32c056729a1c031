package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clipstream/video-transcoder/internal/transcode"
	transcodeHttp "github.com/clipstream/video-transcoder/internal/transcode/delivery/http"
	transcodeRepository "github.com/clipstream/video-transcoder/internal/transcode/repository"
	transcodeUsecase "github.com/clipstream/video-transcoder/internal/transcode/usecase"
	"github.com/clipstream/video-transcoder/pkg/utils"
)

func (s *Server) MapHandlers(e *echo.Echo) error {
	tRepo := transcodeRepository.NewTranscodeRepo(s.db)
	tQueueRepo := transcodeRepository.NewQueueRedisRepo(s.redisClient)
	storage := s.newStorage()

	transcodeUC := transcodeUsecase.NewTranscodeUseCase(s.cfg, tRepo, tQueueRepo, storage, s.logger)
	transcodeHandlers := transcodeHttp.NewTranscodeHandler(transcodeUC)

	v1 := e.Group("/api/v1")
	health := v1.Group("/health")
	transcodeGroup := v1.Group("/transcode")

	transcodeHttp.MapTranscodeRoutes(transcodeGroup, transcodeHandlers)
	health.GET("", func(c echo.Context) error {
		s.logger.Infof("Health check RequestID: %s", utils.GetRequestID(c))
		return c.JSON(http.StatusOK, map[string]string{"status": "OK"})
	})
	return nil
}

// newStorage picks the content store backend from config. Local disk is
// the development default when no S3 client was wired.
func (s *Server) newStorage() transcode.Storage {
	if s.cfg.Storage.Backend == "local" || s.s3Client == nil {
		return transcodeRepository.NewLocalStorage(s.cfg.Storage.LocalRoot)
	}
	return transcodeRepository.NewS3Storage(s.s3Client, s.presignClient, s.cfg.S3.Bucket)
}
