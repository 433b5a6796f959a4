package server

import (
	"net/http"

	"github.com/amankumarsingh77/ffserve/internal/jobs"
	jobsHttp "github.com/amankumarsingh77/ffserve/internal/jobs/delivery/http"
	jobsRepository "github.com/amankumarsingh77/ffserve/internal/jobs/repository"
	jobsUsecase "github.com/amankumarsingh77/ffserve/internal/jobs/usecase"
	"github.com/amankumarsingh77/ffserve/internal/middleware"
	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/amankumarsingh77/ffserve/internal/worker"
	"github.com/amankumarsingh77/ffserve/pkg/utils"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// MapHandlers registers the routes and returns the worker that serves the
// queue behind them.
func (s *Server) MapHandlers(e *echo.Echo) (*worker.Worker, error) {
	workspace := jobs.NewWorkspace(s.cfg.Jobs.WorkDir, s.cfg.Jobs.OutputExt)
	if err := workspace.Check(); err != nil {
		return nil, err
	}

	registry := jobsRepository.NewJobRegistry(nil)
	queue := worker.NewQueue(s.cfg.Jobs.QueueSize)

	var s3API jobsRepository.S3API
	if s.s3Client != nil {
		s3API = s.s3Client
	}
	transport := jobsRepository.NewTransferRepository(&http.Client{}, s3API)

	publisher := jobsRepository.NewNopPublisher()
	if s.redisClient != nil {
		publisher = jobsRepository.NewRedisPublisher(s.redisClient, s.cfg.Redis.EventsChannel)
	}

	jobsUC := jobsUsecase.NewJobsUseCase(s.cfg, registry, queue, workspace, transport,
		utils.NewFFProbe(s.cfg.Encoder.ProbeBinary), publisher, s.logger)
	jobsHandlers := jobsHttp.NewJobsHandler(jobsUC, s.logger)

	w := worker.NewWorker(s.cfg, s.logger, registry, queue, workspace,
		worker.NewTranscoder(s.cfg.Encoder, workspace.Dir()), transport, publisher)

	mw := middleware.NewMiddlewareManager(s.cfg, s.logger)
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Recover())
	e.Use(mw.RequestLoggerMiddleware)

	e.GET("/health", func(c echo.Context) error {
		usage, err := utils.GetCPUUsage()
		if err != nil {
			s.logger.Warnf("Health check RequestID: %s cpu usage: %v", utils.GetRequestID(c), err)
		}
		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:   "OK",
			Queued:   queue.Len(),
			CPUUsage: usage,
		})
	})
	jobsHttp.MapJobRoutes(e.Group(""), jobsHandlers)
	return w, nil
}
