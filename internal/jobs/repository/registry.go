package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/amankumarsingh77/ffserve/internal/jobs"
	"github.com/amankumarsingh77/ffserve/internal/models"
	"github.com/google/uuid"
)

type jobRegistry struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.Job
	now  func() time.Time
}

// NewJobRegistry returns an in-memory registry. now stamps CompletedAt; nil
// means time.Now.
func NewJobRegistry(now func() time.Time) jobs.Registry {
	if now == nil {
		now = time.Now
	}
	return &jobRegistry{
		jobs: make(map[uuid.UUID]*models.Job),
		now:  now,
	}
}

func (r *jobRegistry) Insert(job *models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = cloneJob(job)
}

func (r *jobRegistry) Get(id uuid.UUID) (*models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

func (r *jobRegistry) UpdateState(id uuid.UUID, state models.JobState, errorMessage string) (*models.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	if state.IsTerminal() {
		completedAt := r.now()
		job.CompletedAt = &completedAt
	}
	job.State = state
	if state == models.JobStateError {
		job.ErrorMessage = errorMessage
	} else {
		job.ErrorMessage = ""
	}
	return cloneJob(job), true
}

func (r *jobRegistry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[id]; !ok {
		return false
	}
	delete(r.jobs, id)
	return true
}

// Snapshot returns every job ordered by submission time.
func (r *jobRegistry) Snapshot() []*models.Job {
	r.mu.Lock()
	out := make([]*models.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, cloneJob(job))
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (r *jobRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func cloneJob(job *models.Job) *models.Job {
	c := *job
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
