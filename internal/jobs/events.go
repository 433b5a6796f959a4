package jobs

import (
	"context"

	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/amankumarsingh77/ffserve/pkg/logger"
)

// PublishEvent reports a state change. Delivery failures are only logged.
func PublishEvent(ctx context.Context, p Publisher, log logger.Logger, job *models.Job, state models.JobState) {
	event := models.NewJobEvent(job)
	event.State = state
	if err := p.Publish(ctx, event); err != nil {
		log.Warnf("[%s] failed to publish %s event: %v", job.ID, state, err)
	}
}
