package middleware

import (
	"time"

	"github.com/amankumarsingh77/ffserve/internal/config"
	"github.com/amankumarsingh77/ffserve/pkg/logger"
	"github.com/amankumarsingh77/ffserve/pkg/utils"
	"github.com/labstack/echo/v4"
)

type MiddlewareManager struct {
	cfg    *config.Config
	logger logger.Logger
}

// Middleware manager constructor
func NewMiddlewareManager(cfg *config.Config, logger logger.Logger) *MiddlewareManager {
	return &MiddlewareManager{cfg: cfg, logger: logger}
}

// RequestLoggerMiddleware logs every request once it has been served.
func (mw *MiddlewareManager) RequestLoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		req := c.Request()
		res := c.Response()
		mw.logger.Infof("RequestID: %s, Method: %s, URI: %s, Status: %v, Size: %v, Time: %s, IP: %s",
			utils.GetRequestID(c), req.Method, req.URL.String(), res.Status, res.Size, time.Since(start), utils.GetIPAddress(c),
		)
		return err
	}
}
