package transcode

import "github.com/labstack/echo/v4"

type Handler interface {
	GetPresignUpload() echo.HandlerFunc
	CreateJob() echo.HandlerFunc
	ListJobs() echo.HandlerFunc
	GetJobByID() echo.HandlerFunc
	DeleteJob() echo.HandlerFunc
	ProcessJob() echo.HandlerFunc
	ReprocessJob() echo.HandlerFunc
	GetPlaybackInfo() echo.HandlerFunc
}
