package jobs

import (
	"context"

	"github.com/amankumarsingh77/ffserve/internal/models"
)

type Publisher interface {
	Publish(ctx context.Context, event models.JobEvent) error
}
