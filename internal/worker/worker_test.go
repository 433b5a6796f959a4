package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amankumarsingh77/ffserve/internal/config"
	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/amankumarsingh77/ffserve/internal/jobs/repository"
	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/amankumarsingh77/ffserve/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranscoder struct {
	mu     sync.Mutex
	inputs []string
	err    error
}

func (f *fakeTranscoder) Transcode(inputPath, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, inputPath)
	return f.err
}

func (f *fakeTranscoder) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.inputs...)
}

type fakeTransport struct {
	mu        sync.Mutex
	uploads   []string
	uploadErr error
}

func (f *fakeTransport) Download(context.Context, string, string) error {
	return nil
}

func (f *fakeTransport) Upload(_ context.Context, rawURL, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, rawURL)
	return f.uploadErr
}

func (f *fakeTransport) uploaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.JobEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event models.JobEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) states(id uuid.UUID) []models.JobState {
	p.mu.Lock()
	defer p.mu.Unlock()
	var states []models.JobState
	for _, e := range p.events {
		if e.JobID == id.String() {
			states = append(states, e.State)
		}
	}
	return states
}

type testWorker struct {
	*Worker
	registry   jobs.Registry
	queue      *Queue
	transcoder *fakeTranscoder
	transport  *fakeTransport
	publisher  *recordingPublisher
}

func newTestWorker(t *testing.T, cfg *config.Config) *testWorker {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	tw := &testWorker{
		registry:   repository.NewJobRegistry(nil),
		queue:      NewQueue(8),
		transcoder: &fakeTranscoder{},
		transport:  &fakeTransport{},
		publisher:  &recordingPublisher{},
	}
	tw.Worker = NewWorker(cfg, logger.NewNop(), tw.registry, tw.queue,
		jobs.NewWorkspace(t.TempDir(), "webm"), tw.transcoder, tw.transport, tw.publisher)
	return tw
}

// start runs the worker until the test ends.
func (tw *testWorker) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tw.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (tw *testWorker) submit(t *testing.T, dest string) *models.Job {
	t.Helper()
	job := models.NewJob("http://example.com/in.mp4", dest)
	tw.registry.Insert(job)
	require.NoError(t, tw.queue.Push(context.Background(), job.ID))
	return job
}

func (tw *testWorker) waitForState(t *testing.T, id uuid.UUID, state models.JobState) *models.Job {
	t.Helper()
	var job *models.Job
	require.Eventually(t, func() bool {
		var ok bool
		job, ok = tw.registry.Get(id)
		return ok && job.State == state
	}, 2*time.Second, 5*time.Millisecond)
	return job
}

func TestWorkerProcessesJobToDone(t *testing.T) {
	tw := newTestWorker(t, nil)
	tw.start(t)

	job := tw.submit(t, "http://example.com/out.webm")
	done := tw.waitForState(t, job.ID, models.JobStateDone)

	assert.Empty(t, done.ErrorMessage)
	assert.NotNil(t, done.CompletedAt)
	assert.Equal(t, []string{"http://example.com/out.webm"}, tw.transport.uploaded())
	assert.Equal(t, []models.JobState{models.JobStateProcessing, models.JobStateDone}, tw.publisher.states(job.ID))
}

func TestWorkerRecordsEncoderFailure(t *testing.T) {
	tw := newTestWorker(t, nil)
	tw.transcoder.err = errors.New("ffmpeg pass 1 failed\n\nmoov atom not found")
	tw.start(t)

	job := tw.submit(t, "http://example.com/out.webm")
	failed := tw.waitForState(t, job.ID, models.JobStateError)

	assert.Equal(t, "ffmpeg pass 1 failed\n\nmoov atom not found", failed.ErrorMessage)
	assert.Empty(t, tw.transport.uploaded())
	assert.Equal(t, []models.JobState{models.JobStateProcessing, models.JobStateError}, tw.publisher.states(job.ID))
}

func TestWorkerRecordsUploadFailure(t *testing.T) {
	tw := newTestWorker(t, nil)
	tw.transport.uploadErr = errors.New("upload to http://example.com/out.webm failed: 403 Forbidden")
	tw.start(t)

	job := tw.submit(t, "http://example.com/out.webm")
	failed := tw.waitForState(t, job.ID, models.JobStateError)

	assert.Contains(t, failed.ErrorMessage, "upload to http://example.com/out.webm failed")
}

func TestWorkerProcessesInSubmissionOrder(t *testing.T) {
	tw := newTestWorker(t, nil)

	first := tw.submit(t, "http://example.com/1")
	second := tw.submit(t, "http://example.com/2")
	third := tw.submit(t, "http://example.com/3")
	tw.start(t)

	tw.waitForState(t, third.ID, models.JobStateDone)
	assert.Equal(t, []string{
		tw.workspace.InputPath(first.ID),
		tw.workspace.InputPath(second.ID),
		tw.workspace.InputPath(third.ID),
	}, tw.transcoder.calls())
}

func TestWorkerSkipsUnregisteredJob(t *testing.T) {
	tw := newTestWorker(t, nil)
	require.NoError(t, tw.queue.Push(context.Background(), uuid.New()))
	tw.start(t)

	job := tw.submit(t, "http://example.com/out.webm")
	tw.waitForState(t, job.ID, models.JobStateDone)

	assert.Len(t, tw.transcoder.calls(), 1)
}

func TestWorkerWaitsForCPU(t *testing.T) {
	cfg := &config.Config{Worker: config.WorkerConfig{MaxCPUUsage: 50, CPUCheckInterval: time.Millisecond}}
	tw := newTestWorker(t, cfg)

	var mu sync.Mutex
	checks := 0
	tw.cpuUsage = func() (float64, error) {
		mu.Lock()
		defer mu.Unlock()
		checks++
		if checks > 2 {
			return 40, nil
		}
		return 90, nil
	}
	tw.start(t)

	job := tw.submit(t, "http://example.com/out.webm")
	tw.waitForState(t, job.ID, models.JobStateDone)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, checks)
}

func TestWorkerProceedsWhenCPUReadingFails(t *testing.T) {
	cfg := &config.Config{Worker: config.WorkerConfig{MaxCPUUsage: 50, CPUCheckInterval: time.Hour}}
	tw := newTestWorker(t, cfg)
	tw.cpuUsage = func() (float64, error) {
		return 0, errors.New("cpu usage unavailable")
	}
	tw.start(t)

	job := tw.submit(t, "http://example.com/out.webm")
	tw.waitForState(t, job.ID, models.JobStateDone)
}

func TestWorkerClosesQueueOnExit(t *testing.T) {
	tw := newTestWorker(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, tw.Run(ctx))
	assert.ErrorIs(t, tw.queue.Push(context.Background(), uuid.New()), jobs.ErrQueueClosed)
}
