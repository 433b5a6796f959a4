package http

import (
	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/labstack/echo/v4"
)

func MapJobRoutes(jobsGroup *echo.Group, h jobs.Handler) {
	jobsGroup.POST("/", h.Submit())
	jobsGroup.GET("/", h.Status())
}
