package jobs

import (
	"context"

	"github.com/amankumarsingh77/ffserve/internal/models"
)

type UseCase interface {
	// Submit fetches, probes and validates the source. A policy rejection is
	// returned as a non-nil *Rejection with a nil error.
	Submit(ctx context.Context, input *models.SubmitInput) (*models.SubmitResponse, *Rejection, error)
	// Status lists live jobs after reaping the expired ones.
	Status(ctx context.Context) (*models.StatusResponse, error)
}
