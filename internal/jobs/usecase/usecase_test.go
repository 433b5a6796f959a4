package usecase

import (
	"context"
	"errors"
	"os"
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

type fakeTransport struct {
	downloadErr error
}

func (f *fakeTransport) Download(_ context.Context, _ string, dstPath string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	return os.WriteFile(dstPath, []byte("video"), 0o644)
}

func (f *fakeTransport) Upload(context.Context, string, string) error {
	return nil
}

type fakeProber struct {
	meta *models.Metadata
	err  error
}

func (f *fakeProber) Probe(context.Context, string) (*models.Metadata, error) {
	return f.meta, f.err
}

type fakeQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
	err error
}

func (q *fakeQueue) Push(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func (q *fakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
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

func (p *recordingPublisher) snapshot() []models.JobEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.JobEvent(nil), p.events...)
}

type fixture struct {
	uc        *jobsUC
	registry  jobs.Registry
	queue     *fakeQueue
	workspace *jobs.Workspace
	transport *fakeTransport
	prober    *fakeProber
	publisher *recordingPublisher
	clock     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := &config.Config{
		Jobs:   config.JobsConfig{Retention: time.Hour},
		Policy: config.PolicyConfig{MaxDuration: 2 * time.Minute, Orientation: config.OrientationLandscape},
	}
	f := &fixture{
		queue:     &fakeQueue{},
		workspace: jobs.NewWorkspace(t.TempDir(), "webm"),
		transport: &fakeTransport{},
		prober:    &fakeProber{meta: &models.Metadata{Width: 1280, Height: 720, Duration: 30}},
		publisher: &recordingPublisher{},
		clock:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	now := func() time.Time { return f.clock }
	f.registry = repository.NewJobRegistry(now)
	uc := NewJobsUseCase(cfg, f.registry, f.queue, f.workspace, f.transport, f.prober, f.publisher, logger.NewNop())
	f.uc = uc.(*jobsUC)
	f.uc.now = now
	return f
}

func (f *fixture) submit(t *testing.T) *models.SubmitResponse {
	t.Helper()
	resp, rejection, err := f.uc.Submit(context.Background(), &models.SubmitInput{
		SourceURL: "http://example.com/in.mp4",
		DestURL:   "http://example.com/out.webm",
	})
	require.NoError(t, err)
	require.Nil(t, rejection)
	return resp
}

func TestSubmitAcceptsLandscapeVideo(t *testing.T) {
	f := newFixture(t)

	resp := f.submit(t)

	assert.Equal(t, &models.Metadata{Width: 1280, Height: 720, Duration: 30}, resp.Metadata)
	id := uuid.MustParse(resp.ID)
	job, ok := f.registry.Get(id)
	require.True(t, ok)
	assert.Equal(t, models.JobStateWaiting, job.State)
	assert.Equal(t, []uuid.UUID{id}, f.queue.ids)
	assert.FileExists(t, f.workspace.InputPath(id))
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.JobStateWaiting, f.publisher.events[0].State)
}

func TestSubmitRejectsPortrait(t *testing.T) {
	f := newFixture(t)
	f.prober.meta = &models.Metadata{Width: 720, Height: 1280, Duration: 30}

	resp, rejection, err := f.uc.Submit(context.Background(), &models.SubmitInput{
		SourceURL: "http://example.com/in.mp4",
		DestURL:   "http://example.com/out.webm",
	})
	require.NoError(t, err)
	assert.Nil(t, resp)
	require.NotNil(t, rejection)
	assert.Equal(t, jobs.RejectIncorrectOrientation, rejection.Kind)
	assert.Zero(t, f.registry.Len())
	assert.Empty(t, f.queue.ids)
	assertDirEmpty(t, f.workspace.Dir())
}

func TestSubmitRejectsLongVideo(t *testing.T) {
	f := newFixture(t)
	f.prober.meta = &models.Metadata{Width: 1920, Height: 1080, Duration: 121}

	_, rejection, err := f.uc.Submit(context.Background(), &models.SubmitInput{
		SourceURL: "http://example.com/in.mp4",
		DestURL:   "http://example.com/out.webm",
	})
	require.NoError(t, err)
	require.NotNil(t, rejection)
	assert.Equal(t, jobs.RejectVideoTooLong, rejection.Kind)
	assert.Equal(t, "Video duration is greater than 120 seconds", rejection.Description)
	assertDirEmpty(t, f.workspace.Dir())
}

func TestSubmitRejectsUnprobeableFile(t *testing.T) {
	f := newFixture(t)
	f.prober.err = errors.New("no duration found")

	_, rejection, err := f.uc.Submit(context.Background(), &models.SubmitInput{
		SourceURL: "http://example.com/notes.txt",
		DestURL:   "http://example.com/out.webm",
	})
	require.NoError(t, err)
	require.NotNil(t, rejection)
	assert.Equal(t, jobs.RejectInvalidVideo, rejection.Kind)
	assert.Zero(t, f.registry.Len())
	assertDirEmpty(t, f.workspace.Dir())
}

func TestSubmitFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.transport.downloadErr = jobs.ErrSourceUnavailable

	resp, rejection, err := f.uc.Submit(context.Background(), &models.SubmitInput{
		SourceURL: "http://example.com/missing.mp4",
		DestURL:   "http://example.com/out.webm",
	})
	assert.ErrorIs(t, err, jobs.ErrSourceUnavailable)
	assert.Nil(t, resp)
	assert.Nil(t, rejection)
	assert.Zero(t, f.registry.Len())
}

func TestSubmitValidatesInput(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.uc.Submit(context.Background(), &models.SubmitInput{SourceURL: "http://example.com/in.mp4"})
	assert.ErrorIs(t, err, jobs.ErrInvalidInput)

	_, _, err = f.uc.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, jobs.ErrInvalidInput)
}

func TestSubmitWithClosedQueueMarksJobFailed(t *testing.T) {
	f := newFixture(t)
	f.queue.err = jobs.ErrQueueClosed

	_, _, err := f.uc.Submit(context.Background(), &models.SubmitInput{
		SourceURL: "http://example.com/in.mp4",
		DestURL:   "http://example.com/out.webm",
	})
	assert.ErrorIs(t, err, jobs.ErrQueueClosed)

	snapshot := f.registry.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, models.JobStateError, snapshot[0].State)
	assert.Equal(t, "work queue is closed", snapshot[0].ErrorMessage)
}

func TestStatusListsJobsInSubmissionOrder(t *testing.T) {
	f := newFixture(t)

	first := f.submit(t)
	f.clock = f.clock.Add(time.Second)
	second := f.submit(t)
	_, ok := f.registry.UpdateState(uuid.MustParse(first.ID), models.JobStateError, "ffmpeg pass 1 failed\n\nboom")
	require.True(t, ok)

	resp, err := f.uc.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Jobs, 2)

	assert.Equal(t, first.ID, resp.Jobs[0].ID)
	assert.Equal(t, models.JobStateError, resp.Jobs[0].State)
	require.NotNil(t, resp.Jobs[0].ErrorMessage)
	assert.Equal(t, "ffmpeg pass 1 failed\n\nboom", *resp.Jobs[0].ErrorMessage)

	assert.Equal(t, second.ID, resp.Jobs[1].ID)
	assert.Equal(t, models.JobStateWaiting, resp.Jobs[1].State)
	assert.Nil(t, resp.Jobs[1].ErrorMessage)
}

func TestStatusReapsExpiredJobs(t *testing.T) {
	f := newFixture(t)

	resp := f.submit(t)
	id := uuid.MustParse(resp.ID)
	require.NoError(t, os.WriteFile(f.workspace.OutputPath(id), []byte("encoded"), 0o644))
	_, ok := f.registry.UpdateState(id, models.JobStateDone, "")
	require.True(t, ok)

	f.clock = f.clock.Add(time.Hour)
	status, err := f.uc.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, status.Jobs, 1, "a job exactly at the retention boundary is kept")
	assert.FileExists(t, f.workspace.InputPath(id))
	assert.FileExists(t, f.workspace.OutputPath(id))

	f.clock = f.clock.Add(time.Second)
	status, err = f.uc.Status(context.Background())
	require.NoError(t, err)
	assert.Empty(t, status.Jobs)

	_, ok = f.registry.Get(id)
	assert.False(t, ok)
	assertDirEmpty(t, f.workspace.Dir())
	last := f.publisher.events[len(f.publisher.events)-1]
	assert.Equal(t, models.JobStateExpired, last.State)
}

func TestReapPublishesExpiryOnce(t *testing.T) {
	f := newFixture(t)
	resp := f.submit(t)
	id := uuid.MustParse(resp.ID)
	done, ok := f.registry.UpdateState(id, models.JobStateDone, "")
	require.True(t, ok)

	f.uc.reap(context.Background(), done)
	f.uc.reap(context.Background(), done)

	expired := 0
	for _, e := range f.publisher.events {
		if e.State == models.JobStateExpired {
			expired++
		}
	}
	assert.Equal(t, 1, expired)
	assert.Zero(t, f.registry.Len())
}

func TestConcurrentStatusReapsOnce(t *testing.T) {
	f := newFixture(t)
	resp := f.submit(t)
	_, ok := f.registry.UpdateState(uuid.MustParse(resp.ID), models.JobStateDone, "")
	require.True(t, ok)
	f.clock = f.clock.Add(2 * time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, err := f.uc.Status(context.Background())
			assert.NoError(t, err)
			assert.Empty(t, status.Jobs)
		}()
	}
	wg.Wait()

	expired := 0
	for _, e := range f.publisher.snapshot() {
		if e.State == models.JobStateExpired {
			expired++
		}
	}
	assert.Equal(t, 1, expired)
}

func TestStatusKeepsUnfinishedJobs(t *testing.T) {
	f := newFixture(t)
	resp := f.submit(t)

	f.clock = f.clock.Add(48 * time.Hour)
	status, err := f.uc.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, status.Jobs, 1)
	assert.Equal(t, resp.ID, status.Jobs[0].ID)
}

func TestStatusEmpty(t *testing.T) {
	f := newFixture(t)

	status, err := f.uc.Status(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, status.Jobs)
	assert.Empty(t, status.Jobs)
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
