package http

import (
	"errors"
	"net/http"

	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/amankumarsingh77/ffserve/pkg/logger"
	"github.com/amankumarsingh77/ffserve/pkg/utils"
	"github.com/labstack/echo/v4"
)

type jobsHandler struct {
	jobsUC jobs.UseCase
	logger logger.Logger
}

func NewJobsHandler(jobsUC jobs.UseCase, log logger.Logger) jobs.Handler {
	return &jobsHandler{
		jobsUC: jobsUC,
		logger: log,
	}
}

func (h *jobsHandler) Submit() echo.HandlerFunc {
	return func(c echo.Context) error {
		input := &models.SubmitInput{}
		if err := c.Bind(input); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
		}
		resp, rejection, err := h.jobsUC.Submit(c.Request().Context(), input)
		if err != nil {
			status := submitErrorStatus(err)
			if status >= http.StatusInternalServerError {
				h.logger.Errorf("Submit RequestID: %s error: %v", utils.GetRequestID(c), err)
			}
			return c.JSON(status, map[string]string{"error": err.Error()})
		}
		if rejection != nil {
			return c.JSON(http.StatusBadRequest, models.RejectionResponse{
				Error:       string(rejection.Kind),
				Description: rejection.Description,
			})
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func (h *jobsHandler) Status() echo.HandlerFunc {
	return func(c echo.Context) error {
		resp, err := h.jobsUC.Status(c.Request().Context())
		if err != nil {
			h.logger.Errorf("Status RequestID: %s error: %v", utils.GetRequestID(c), err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// submitErrorStatus maps caller mistakes and unreachable sources to 400.
// Everything else is the service's fault.
func submitErrorStatus(err error) int {
	switch {
	case errors.Is(err, jobs.ErrInvalidInput),
		errors.Is(err, jobs.ErrSourceUnavailable),
		errors.Is(err, jobs.ErrUnsupportedScheme),
		errors.Is(err, jobs.ErrStorageNotConfigured):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
