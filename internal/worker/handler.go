package worker

import (
	"context"

	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/google/uuid"
)

// processJob runs one job to a terminal state. Ids that are no longer
// registered are skipped.
func (w *Worker) processJob(ctx context.Context, id uuid.UUID) {
	job, ok := w.registry.UpdateState(id, models.JobStateProcessing, "")
	if !ok {
		w.logger.Warnf("[%s] job is no longer registered, skipping", id)
		return
	}
	jobs.PublishEvent(ctx, w.publisher, w.logger, job, models.JobStateProcessing)
	w.logger.Infof("[%s] processing started", id)

	if err := w.encodeAndUpload(ctx, job); err != nil {
		w.logger.Errorf("[%s] processing failed: %v", id, err)
		w.finish(ctx, id, models.JobStateError, err.Error())
		return
	}
	w.logger.Infof("[%s] processing finished", id)
	w.finish(ctx, id, models.JobStateDone, "")
}

func (w *Worker) encodeAndUpload(ctx context.Context, job *models.Job) error {
	input := w.workspace.InputPath(job.ID)
	output := w.workspace.OutputPath(job.ID)

	if err := w.transcoder.Transcode(input, output); err != nil {
		return err
	}
	w.logger.Debugf("[%s] encoded to %s, uploading to %s", job.ID, output, job.DestURL)
	return w.transport.Upload(ctx, job.DestURL, output)
}

func (w *Worker) finish(ctx context.Context, id uuid.UUID, state models.JobState, message string) {
	job, ok := w.registry.UpdateState(id, state, message)
	if !ok {
		w.logger.Warnf("[%s] job disappeared before it could be marked %s", id, state)
		return
	}
	jobs.PublishEvent(ctx, w.publisher, w.logger, job, state)
}
