package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/amankumarsingh77/ffserve/internal/config"
	"github.com/amankumarsingh77/ffserve/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
)

const (
	maxHeaderBytes         = 1 << 20
	defaultShutdownTimeout = 5 * time.Second
)

type Server struct {
	echo        *echo.Echo
	cfg         *config.Config
	redisClient *redis.Client
	s3Client    *s3.Client
	logger      logger.Logger
}

// NewServer wires the HTTP surface and the transcoding worker. redisClient
// and s3Client are optional.
func NewServer(cfg *config.Config, redisClient *redis.Client, s3Client *s3.Client, logger logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &Server{
		echo:        e,
		cfg:         cfg,
		redisClient: redisClient,
		s3Client:    s3Client,
		logger:      logger,
	}
}

// Run serves requests and processes jobs until ctx is cancelled or either
// side fails.
func (s *Server) Run(ctx context.Context) error {
	w, err := s.MapHandlers(s.echo)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:           s.cfg.Addr(),
		ReadTimeout:    s.cfg.Server.ReadTimeout,
		WriteTimeout:   s.cfg.Server.WriteTimeout,
		MaxHeaderBytes: maxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.Run(gctx); err != nil {
			return err
		}
		if gctx.Err() == nil {
			return errors.New("transcoding worker stopped")
		}
		return nil
	})
	g.Go(func() error {
		s.logger.Infof("Server is listening on %s", server.Addr)
		if err := s.echo.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.logger.Info("shutting down server")
		return s.echo.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
