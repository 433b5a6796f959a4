package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/amankumarsingh77/ffserve/internal/config"
	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/amankumarsingh77/ffserve/pkg/logger"
	"github.com/amankumarsingh77/ffserve/pkg/utils"
)

type jobsUC struct {
	cfg       *config.Config
	registry  jobs.Registry
	queue     jobs.Queue
	workspace *jobs.Workspace
	transport jobs.Transport
	prober    jobs.Prober
	publisher jobs.Publisher
	policy    jobs.Policy
	logger    logger.Logger
	now       func() time.Time
}

func NewJobsUseCase(
	cfg *config.Config,
	registry jobs.Registry,
	queue jobs.Queue,
	workspace *jobs.Workspace,
	transport jobs.Transport,
	prober jobs.Prober,
	publisher jobs.Publisher,
	log logger.Logger,
) jobs.UseCase {
	return &jobsUC{
		cfg:       cfg,
		registry:  registry,
		queue:     queue,
		workspace: workspace,
		transport: transport,
		prober:    prober,
		publisher: publisher,
		policy:    jobs.NewPolicy(cfg.Policy),
		logger:    log,
		now:       time.Now,
	}
}

func (u *jobsUC) Submit(ctx context.Context, input *models.SubmitInput) (*models.SubmitResponse, *jobs.Rejection, error) {
	if input == nil {
		return nil, nil, fmt.Errorf("%w: input is nil", jobs.ErrInvalidInput)
	}
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("Submit - ValidateStruct error: %v", err)
		return nil, nil, fmt.Errorf("%w: %v", jobs.ErrInvalidInput, err)
	}

	job := models.NewJob(input.SourceURL, input.DestURL)
	job.CreatedAt = u.now()
	inputPath := u.workspace.InputPath(job.ID)

	u.logger.Infof("[%s] fetching %s", job.ID, input.SourceURL)
	if err := u.transport.Download(ctx, input.SourceURL, inputPath); err != nil {
		u.logger.Errorf("[%s] Submit - Download error: %v", job.ID, err)
		return nil, nil, err
	}

	meta, err := u.prober.Probe(ctx, inputPath)
	if err != nil {
		u.logger.Warnf("[%s] probe failed: %v", job.ID, err)
		u.discardInput(job)
		return nil, jobs.InvalidVideo(), nil
	}
	if rejection := u.policy.Check(meta); rejection != nil {
		u.logger.Infof("[%s] rejected: %s", job.ID, rejection)
		u.discardInput(job)
		return nil, rejection, nil
	}

	u.registry.Insert(job)
	jobs.PublishEvent(ctx, u.publisher, u.logger, job, models.JobStateWaiting)

	if err := u.queue.Push(ctx, job.ID); err != nil {
		u.logger.Errorf("[%s] Submit - Push error: %v", job.ID, err)
		if failed, ok := u.registry.UpdateState(job.ID, models.JobStateError, err.Error()); ok {
			jobs.PublishEvent(context.WithoutCancel(ctx), u.publisher, u.logger, failed, models.JobStateError)
		}
		return nil, nil, err
	}

	u.logger.Infof("[%s] queued (%dx%d, %ds)", job.ID, meta.Width, meta.Height, meta.Duration)
	return &models.SubmitResponse{
		ID:       job.ID.String(),
		Metadata: meta,
	}, nil, nil
}

func (u *jobsUC) Status(ctx context.Context) (*models.StatusResponse, error) {
	now := u.now()
	resp := &models.StatusResponse{Jobs: make([]models.JobStatus, 0)}

	for _, job := range u.registry.Snapshot() {
		if job.Expired(now, u.cfg.Jobs.Retention) {
			u.reap(ctx, job)
			continue
		}
		resp.Jobs = append(resp.Jobs, models.NewJobStatus(job))
	}
	return resp, nil
}

// reap forgets an expired job and deletes its artifacts. Only the caller
// that actually removed the job reports it.
func (u *jobsUC) reap(ctx context.Context, job *models.Job) {
	if !u.registry.Remove(job.ID) {
		return
	}
	if err := u.workspace.Remove(job.ID); err != nil {
		u.logger.Warnf("[%s] failed to remove artifacts: %v", job.ID, err)
	}
	u.logger.Infof("[%s] expired after %s", job.ID, u.cfg.Jobs.Retention)
	jobs.PublishEvent(ctx, u.publisher, u.logger, job, models.JobStateExpired)
}

func (u *jobsUC) discardInput(job *models.Job) {
	if err := u.workspace.RemoveInput(job.ID); err != nil {
		u.logger.Warnf("[%s] failed to remove input: %v", job.ID, err)
	}
}
