package worker

import (
	"context"
	"time"

	"github.com/amankumarsingh77/ffserve/internal/config"
	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/amankumarsingh77/ffserve/pkg/logger"
	"github.com/amankumarsingh77/ffserve/pkg/utils"
)

// Worker is the single consumer of the job queue. Jobs are processed one at
// a time in submission order.
type Worker struct {
	cfg        *config.Config
	logger     logger.Logger
	registry   jobs.Registry
	queue      *Queue
	workspace  *jobs.Workspace
	transcoder Transcoder
	transport  jobs.Transport
	publisher  jobs.Publisher
	cpuUsage   CPUReader
}

func NewWorker(
	cfg *config.Config,
	logger logger.Logger,
	registry jobs.Registry,
	queue *Queue,
	workspace *jobs.Workspace,
	transcoder Transcoder,
	transport jobs.Transport,
	publisher jobs.Publisher,
) *Worker {
	return &Worker{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		queue:      queue,
		workspace:  workspace,
		transcoder: transcoder,
		transport:  transport,
		publisher:  publisher,
		cpuUsage:   utils.GetCPUUsage,
	}
}

// Run consumes the queue until ctx is cancelled. Once it returns the queue
// is closed and further submissions fail.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("Starting transcoding worker")
	defer w.queue.Close()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Transcoding worker stopped")
			return nil
		case id := <-w.queue.Jobs():
			if !w.waitForCPU(ctx) {
				w.logger.Warnf("[%s] worker stopped before the job could start", id)
				return nil
			}
			w.processJob(ctx, id)
		}
	}
}

// waitForCPU holds the next job while host CPU usage is above the
// configured ceiling. A failed reading does not hold the job. It returns
// false if ctx ends first.
func (w *Worker) waitForCPU(ctx context.Context) bool {
	limit := w.cfg.Worker.MaxCPUUsage
	if limit <= 0 {
		return true
	}
	interval := w.cfg.Worker.CPUCheckInterval
	if interval <= 0 {
		interval = defaultCPUCheckInterval
	}
	for {
		usage, err := w.cpuUsage()
		if err != nil {
			w.logger.Warnf("CPU usage unavailable, not waiting: %v", err)
			return true
		}
		if usage <= limit {
			return true
		}
		w.logger.Infof("CPU usage is high: %.1f%%, waiting", usage)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}
	}
}
